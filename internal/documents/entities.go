package documents

import (
	"causeway/internal/model"
	"causeway/internal/repository"
)

type User struct {
	model.Document
}

// Job is the root of the workflow. Its children are embedded in it.
type Job struct {
	model.Document
}

// Bid keeps a copy of the job it was loaded from, the same goes for the other children.
type Bid struct {
	model.Document
	Job Job
}

type Offer struct {
	model.Document
	Bid Bid
}

type Delivery struct {
	model.Document
	Job Job
}

type AcceptDelivery struct {
	model.Document
	Delivery Delivery
}

type Dispute struct {
	model.Document
	Job Job
}

type DisputeResolution struct {
	model.Document
	Dispute Dispute
}

type AcceptDisputeResolution struct {
	model.Document
	Dispute Dispute
}

func notFound(format string, args ...interface{}) error {
	return model.NewError(model.KindNotFound, format, args...)
}

func (j Job) Finished() bool {
	finished, _ := j.Get(repository.FinishedField)
	return finished == true
}

// Bids returns every bid of the job in the order they were placed.
func (j Job) Bids() []Bid {
	stored := j.List(repository.BidsField)
	bids := make([]Bid, len(stored))
	for i, b := range stored {
		bids[i] = Bid{Document: b, Job: j}
	}
	return bids
}

func (j Job) Bid(bidID string) (Bid, error) {
	for _, bid := range j.Bids() {
		if bid.ID() == bidID {
			return bid, nil
		}
	}
	return Bid{}, notFound("bid %s of job %s", bidID, j.ID())
}

// OfferedBid returns the bid that received the offer of the job.
func (j Job) OfferedBid() (Bid, error) {
	for _, bid := range j.Bids() {
		if bid.Has(repository.OfferField) {
			return bid, nil
		}
	}
	return Bid{}, notFound("offer for job %s", j.ID())
}

func (j Job) Delivery() (Delivery, error) {
	doc, ok := j.Sub(DeliveryPath)
	if !ok {
		return Delivery{}, notFound("delivery for job %s", j.ID())
	}
	return Delivery{Document: doc, Job: j}, nil
}

func (j Job) Dispute() (Dispute, error) {
	doc, ok := j.Sub(DisputePath)
	if !ok {
		return Dispute{}, notFound("dispute for job %s", j.ID())
	}
	return Dispute{Document: doc, Job: j}, nil
}

func (b Bid) Offer() (Offer, error) {
	doc, ok := b.Sub(repository.OfferField)
	if !ok {
		return Offer{}, notFound("offer for bid %s", b.ID())
	}
	return Offer{Document: doc, Bid: b}, nil
}

func (d Delivery) Acceptance() (AcceptDelivery, error) {
	doc, ok := d.Sub(lastKey(AcceptDeliveryPath))
	if !ok {
		return AcceptDelivery{}, notFound("acceptance for delivery %s", d.ID())
	}
	return AcceptDelivery{Document: doc, Delivery: d}, nil
}

func (d Dispute) Resolution() (DisputeResolution, error) {
	doc, ok := d.Sub(lastKey(ResolutionPath))
	if !ok {
		return DisputeResolution{}, notFound("resolution for dispute %s", d.ID())
	}
	return DisputeResolution{Document: doc, Dispute: d}, nil
}

func (d Dispute) Acceptance() (AcceptDisputeResolution, error) {
	doc, ok := d.Sub(lastKey(AcceptResolutionPath))
	if !ok {
		return AcceptDisputeResolution{}, notFound("resolution acceptance for dispute %s", d.ID())
	}
	return AcceptDisputeResolution{Document: doc, Dispute: d}, nil
}

func lastKey(path string) string {
	parent := repository.ParentPath(path)
	if parent == "" {
		return path
	}
	return path[len(parent)+1:]
}
