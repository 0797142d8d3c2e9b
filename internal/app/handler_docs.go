package app

import (
	"context"

	"causeway/internal/documents"

	"go.uber.org/zap"
)

// CreateUser is the one creation that needs no token: the user has none to get one with yet.
func (a App) CreateUser(ctx context.Context, payload string) (documents.User, error) {
	return a.docs.CreateUser(ctx, payload)
}

func (a App) CreateJob(ctx context.Context, token, payload string) (documents.Job, error) {
	if err := a.authorize(ctx, token, payload); err != nil {
		return documents.Job{}, err
	}
	return a.docs.CreateJob(ctx, payload)
}

func (a App) AddBid(ctx context.Context, token, jobID, payload string) (documents.Bid, error) {
	if err := a.authorize(ctx, token, payload); err != nil {
		return documents.Bid{}, err
	}
	job, err := a.docs.FindJob(ctx, jobID)
	if err != nil {
		return documents.Bid{}, err
	}
	return a.docs.AddBid(ctx, job, payload)
}

func (a App) CreateOffer(ctx context.Context, token, jobID, bidID, payload string) (documents.Offer, error) {
	if err := a.authorize(ctx, token, payload); err != nil {
		return documents.Offer{}, err
	}
	bid, err := a.Bid(ctx, jobID, bidID)
	if err != nil {
		return documents.Offer{}, err
	}
	return a.docs.CreateOffer(ctx, bid, payload)
}

func (a App) CreateDelivery(ctx context.Context, token, jobID, payload string) (documents.Delivery, error) {
	if err := a.authorize(ctx, token, payload); err != nil {
		return documents.Delivery{}, err
	}
	job, err := a.docs.FindJob(ctx, jobID)
	if err != nil {
		return documents.Delivery{}, err
	}
	return a.docs.CreateDelivery(ctx, job, payload)
}

func (a App) AcceptDelivery(ctx context.Context, token, jobID, payload string) (documents.AcceptDelivery, error) {
	if err := a.authorize(ctx, token, payload); err != nil {
		return documents.AcceptDelivery{}, err
	}
	delivery, err := a.Delivery(ctx, jobID)
	if err != nil {
		return documents.AcceptDelivery{}, err
	}

	acceptance, err := a.docs.AcceptDelivery(ctx, delivery, payload)
	if err != nil {
		return documents.AcceptDelivery{}, err
	}
	a.logger.Info("job finished by accepted delivery", zap.String("jobID", jobID))
	return acceptance, nil
}

func (a App) CreateDispute(ctx context.Context, token, jobID, payload string) (documents.Dispute, error) {
	if err := a.authorize(ctx, token, payload); err != nil {
		return documents.Dispute{}, err
	}
	job, err := a.docs.FindJob(ctx, jobID)
	if err != nil {
		return documents.Dispute{}, err
	}
	return a.docs.CreateDispute(ctx, job, payload)
}

func (a App) ResolveDispute(ctx context.Context, token, jobID, payload string) (documents.DisputeResolution, error) {
	if err := a.authorize(ctx, token, payload); err != nil {
		return documents.DisputeResolution{}, err
	}
	dispute, err := a.Dispute(ctx, jobID)
	if err != nil {
		return documents.DisputeResolution{}, err
	}
	return a.docs.ResolveDispute(ctx, dispute, payload)
}

func (a App) AcceptResolution(ctx context.Context, token, jobID, payload string) (documents.AcceptDisputeResolution, error) {
	if err := a.authorize(ctx, token, payload); err != nil {
		return documents.AcceptDisputeResolution{}, err
	}
	dispute, err := a.Dispute(ctx, jobID)
	if err != nil {
		return documents.AcceptDisputeResolution{}, err
	}

	acceptance, err := a.docs.AcceptResolution(ctx, dispute, payload)
	if err != nil {
		return documents.AcceptDisputeResolution{}, err
	}
	a.logger.Info("job finished by accepted resolution", zap.String("jobID", jobID))
	return acceptance, nil
}
