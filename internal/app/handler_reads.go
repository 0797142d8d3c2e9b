package app

import (
	"context"

	"causeway/internal/documents"
)

func (a App) Users(ctx context.Context) ([]documents.User, error) {
	return a.docs.Users(ctx)
}

func (a App) User(ctx context.Context, key string) (documents.User, error) {
	return a.docs.FindUser(ctx, key)
}

func (a App) Jobs(ctx context.Context, activeOnly bool) ([]documents.Job, error) {
	return a.docs.Jobs(ctx, activeOnly)
}

func (a App) Job(ctx context.Context, jobID string) (documents.Job, error) {
	return a.docs.FindJob(ctx, jobID)
}

func (a App) JobState(ctx context.Context, jobID string) (documents.JobState, error) {
	job, err := a.docs.FindJob(ctx, jobID)
	if err != nil {
		return documents.JobOpen, err
	}
	return job.State(), nil
}

func (a App) Bids(ctx context.Context, jobID string) ([]documents.Bid, error) {
	job, err := a.docs.FindJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return job.Bids(), nil
}

func (a App) Bid(ctx context.Context, jobID, bidID string) (documents.Bid, error) {
	job, err := a.docs.FindJob(ctx, jobID)
	if err != nil {
		return documents.Bid{}, err
	}
	return job.Bid(bidID)
}

// OfferedBid returns the bid of the job that received the offer.
func (a App) OfferedBid(ctx context.Context, jobID string) (documents.Bid, error) {
	job, err := a.docs.FindJob(ctx, jobID)
	if err != nil {
		return documents.Bid{}, err
	}
	return job.OfferedBid()
}

func (a App) Offer(ctx context.Context, jobID, bidID string) (documents.Offer, error) {
	bid, err := a.Bid(ctx, jobID, bidID)
	if err != nil {
		return documents.Offer{}, err
	}
	return bid.Offer()
}

func (a App) Delivery(ctx context.Context, jobID string) (documents.Delivery, error) {
	job, err := a.docs.FindJob(ctx, jobID)
	if err != nil {
		return documents.Delivery{}, err
	}
	return job.Delivery()
}

func (a App) DeliveryAcceptance(ctx context.Context, jobID string) (documents.AcceptDelivery, error) {
	delivery, err := a.Delivery(ctx, jobID)
	if err != nil {
		return documents.AcceptDelivery{}, err
	}
	return delivery.Acceptance()
}

func (a App) Dispute(ctx context.Context, jobID string) (documents.Dispute, error) {
	job, err := a.docs.FindJob(ctx, jobID)
	if err != nil {
		return documents.Dispute{}, err
	}
	return job.Dispute()
}

func (a App) Resolution(ctx context.Context, jobID string) (documents.DisputeResolution, error) {
	dispute, err := a.Dispute(ctx, jobID)
	if err != nil {
		return documents.DisputeResolution{}, err
	}
	return dispute.Resolution()
}

func (a App) ResolutionAcceptance(ctx context.Context, jobID string) (documents.AcceptDisputeResolution, error) {
	dispute, err := a.Dispute(ctx, jobID)
	if err != nil {
		return documents.AcceptDisputeResolution{}, err
	}
	return dispute.Acceptance()
}
