package documents

import (
	"context"

	"causeway/internal/model"
	"causeway/internal/repository"
)

const (
	TypeUser                    = "user"
	TypeJob                     = "job"
	TypeBid                     = "bid"
	TypeOffer                   = "offer"
	TypeDelivery                = "delivery"
	TypeAcceptDelivery          = "accept_delivery"
	TypeDispute                 = "dispute"
	TypeDisputeResolution       = "dispute_resolution"
	TypeAcceptDisputeResolution = "accept_dispute_resolution"
)

// storage paths of the single valued children inside a job
const (
	DeliveryPath         = "delivery"
	AcceptDeliveryPath   = "delivery.accept_delivery"
	DisputePath          = "dispute"
	ResolutionPath       = "dispute.resolution"
	AcceptResolutionPath = "dispute.accept_resolution"
)

// workflowKeys are managed by the server and must not come with a job payload.
var workflowKeys = []string{repository.BidsField, DeliveryPath, DisputePath, repository.FinishedField}

type userVariant struct {
	store Store
}

func (userVariant) docType() string { return TypeUser }
func (userVariant) encrypted() bool { return false }

func (userVariant) shape() Shape {
	return Shape{
		"created_at",
		"login",
		"email",
		map[string][]string{"addresses": {"master", "delegate"}},
	}
}

func (v userVariant) isDuplicate(ctx context.Context, doc model.Document) (bool, error) {
	return v.store.LoginExists(ctx, doc.GetString("login"))
}

func (v userVariant) save(ctx context.Context, doc model.Document) error {
	return v.store.InsertUser(ctx, doc)
}

type jobVariant struct {
	store Store
}

func (jobVariant) docType() string { return TypeJob }
func (jobVariant) encrypted() bool { return false }

func (jobVariant) shape() Shape {
	return Shape{
		map[string][]string{"time": {"created_at", "bidding_closes_at"}},
		"name",
		"description",
		"tags",
		map[string][]string{"creator": {"login", "email", "url"}},
		map[string][]string{"mediator": {"login", "email", "fee", "url"}},
	}
}

func (jobVariant) reservedKeys() []string { return workflowKeys }

func (v jobVariant) isDuplicate(ctx context.Context, doc model.Document) (bool, error) {
	return v.store.JobExists(ctx, doc.ID())
}

func (v jobVariant) save(ctx context.Context, doc model.Document) error {
	return v.store.InsertJob(ctx, doc)
}

// bidVariant adds to the set of bids of a job. Bid ids are unique across all jobs.
type bidVariant struct {
	store Store
	jobID string
}

func (bidVariant) docType() string { return TypeBid }
func (bidVariant) encrypted() bool { return true }
func (bidVariant) shape() Shape    { return nil }

func (v bidVariant) isDuplicate(ctx context.Context, doc model.Document) (bool, error) {
	return v.store.BidExists(ctx, doc.ID())
}

func (v bidVariant) save(ctx context.Context, doc model.Document) error {
	return v.store.AddBid(ctx, v.jobID, doc)
}

// offerVariant sets the offer of a bid. A job takes a single offer across its bids.
type offerVariant struct {
	store Store
	jobID string
	bidID string
}

func (offerVariant) docType() string { return TypeOffer }
func (offerVariant) encrypted() bool { return true }
func (offerVariant) shape() Shape    { return nil }

func (v offerVariant) isDuplicate(ctx context.Context, _ model.Document) (bool, error) {
	return v.store.HasChild(ctx, v.jobID, repository.OffersPath)
}

func (v offerVariant) save(ctx context.Context, doc model.Document) error {
	return v.store.SetOffer(ctx, v.jobID, v.bidID, doc)
}

// childVariant is a single valued child stored under path in its job.
// requires names the earlier workflow step that must be stored first,
// finish marks the job finished together with the write.
type childVariant struct {
	store    Store
	typ      string
	jobID    string
	path     string
	requires string
	finish   bool
}

func (v childVariant) docType() string { return v.typ }
func (childVariant) encrypted() bool   { return true }
func (childVariant) shape() Shape      { return nil }

func (v childVariant) isDuplicate(ctx context.Context, _ model.Document) (bool, error) {
	return v.store.HasChild(ctx, v.jobID, v.path)
}

func (v childVariant) save(ctx context.Context, doc model.Document) error {
	return v.store.SetChild(ctx, v.jobID, v.path, v.requires, doc, v.finish)
}
