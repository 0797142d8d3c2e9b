package documents

// JobState is the workflow position of a job, derived from the documents embedded in it.
type JobState int

const (
	JobOpen JobState = iota
	JobBidding
	JobOffered
	JobDelivered
	JobDisputed
	JobResolved
	JobFinished
)

var jobStateNames = [...]string{
	JobOpen:      "open",
	JobBidding:   "bidding",
	JobOffered:   "offered",
	JobDelivered: "delivered",
	JobDisputed:  "disputed",
	JobResolved:  "resolved",
	JobFinished:  "finished",
}

func (s JobState) String() string {
	if s < 0 || int(s) >= len(jobStateNames) {
		return "unknown"
	}
	return jobStateNames[s]
}

// State never moves back: every state requires the documents of the previous ones
// or a dispute, and documents are never removed from a job.
func (j Job) State() JobState {
	if j.Finished() {
		return JobFinished
	}
	if dispute, err := j.Dispute(); err == nil {
		if _, err := dispute.Resolution(); err == nil {
			return JobResolved
		}
		return JobDisputed
	}
	if _, err := j.Delivery(); err == nil {
		return JobDelivered
	}
	if _, err := j.OfferedBid(); err == nil {
		return JobOffered
	}
	if len(j.Bids()) > 0 {
		return JobBidding
	}
	return JobOpen
}
