package copier

// Progress receives total amount of bytes written to destination after each completed write.
// Report is called from the writing goroutine and should return quickly.
type Progress interface {
	Report(total int64)
}

type ProgressFunc func(total int64)

func (f ProgressFunc) Report(total int64) { f(total) }

type nopProgress struct{}

func (nopProgress) Report(int64) {}
