package filestat

// Limit exposes the effective read limit to tests.
func (c FileClassifier) Limit() uint64 {
	return c.limit()
}
