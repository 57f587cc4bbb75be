package vault

import "time"

// BackupCode is the stored form of one backup code.
type BackupCode struct {
	Hash   string     `json:"hash"`
	Used   bool       `json:"used"`
	UsedAt *time.Time `json:"usedAt,omitempty"`
}

// Record is the plaintext protected by the envelope.
type Record struct {
	Enabled     bool         `json:"enabled"`
	CreatedAt   time.Time    `json:"createdAt"`
	TOTPSecret  string       `json:"totpSecret"`
	BackupCodes []BackupCode `json:"backupCodes"`
}

// remaining counts unused backup codes.
func (r *Record) remaining() int {
	n := 0
	for _, c := range r.BackupCodes {
		if !c.Used {
			n++
		}
	}
	return n
}
