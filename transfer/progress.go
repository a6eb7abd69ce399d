package transfer

// Phase tags a Progress event by which kind of transfer work it
// describes.
type Phase int

const (
	Download Phase = iota
	Upload
	Verify
)

func (p Phase) String() string {
	switch p {
	case Download:
		return "Download"
	case Upload:
		return "Upload"
	case Verify:
		return "Verify"
	default:
		return "Unknown"
	}
}

// Progress is emitted before each unit of transfer work. ObjectsHandled
// and BytesHandled are cumulative counts of completed work at the
// moment the event fires (i.e. not including the object this event is
// announcing); NextObjectSize is that about-to-start object's size.
type Progress struct {
	Phase          Phase
	TotalObjects   int64
	TotalBytes     int64
	ObjectsHandled int64
	BytesHandled   int64
	NextObjectSize int64
}

// ProgressFunc is invoked synchronously from a worker goroutine before
// each unit of work. It must not block, and the engine makes no
// ordering guarantees between callbacks fired from different workers
// beyond each worker's own events being monotonic.
type ProgressFunc func(Progress)
