package shared

import "hash/fnv"

// AdvisoryLockID derives a stable Postgres advisory lock id for a named critical section.
func AdvisoryLockID(name string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return int64(h.Sum64() >> 1)
}

// PeriodLedgerLock serialises open/close operations on the period ledger.
var PeriodLedgerLock = AdvisoryLockID("accounting:period-ledger")
