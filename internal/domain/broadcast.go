package domain

type BroadcastFilter string

const (
	BroadcastAll        BroadcastFilter = "all"
	BroadcastWithPhone  BroadcastFilter = "with_phone"
	BroadcastLacksPhone BroadcastFilter = "without_phone"
)

func (f BroadcastFilter) Valid() bool {
	switch f {
	case BroadcastAll, BroadcastWithPhone, BroadcastLacksPhone:
		return true
	}
	return false
}

// BroadcastResult tallies one fan-out run. ID matches the broadcast_id
// attribute of the run's log lines.
type BroadcastResult struct {
	ID       string
	Targeted int
	Sent     int
	Failed   int
}
