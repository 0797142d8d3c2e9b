package documents

import (
	"context"

	"causeway/internal/model"
	"causeway/internal/repository"
)

func (s *Service) CreateUser(ctx context.Context, payload interface{}) (User, error) {
	doc, err := s.create(ctx, userVariant{store: s.store}, payload)
	if err != nil {
		return User{}, err
	}
	return User{Document: doc}, nil
}

func (s *Service) CreateJob(ctx context.Context, payload interface{}) (Job, error) {
	doc, err := s.create(ctx, jobVariant{store: s.store}, payload)
	if err != nil {
		return Job{}, err
	}
	return Job{Document: doc}, nil
}

func (s *Service) AddBid(ctx context.Context, job Job, payload interface{}) (Bid, error) {
	doc, err := s.create(ctx, bidVariant{store: s.store, jobID: job.ID()}, payload)
	if err != nil {
		return Bid{}, err
	}
	return Bid{Document: doc, Job: job}, nil
}

func (s *Service) CreateOffer(ctx context.Context, bid Bid, payload interface{}) (Offer, error) {
	doc, err := s.create(ctx, offerVariant{store: s.store, jobID: bid.Job.ID(), bidID: bid.ID()}, payload)
	if err != nil {
		return Offer{}, err
	}
	return Offer{Document: doc, Bid: bid}, nil
}

// CreateDelivery needs a bid of the job to carry an offer.
func (s *Service) CreateDelivery(ctx context.Context, job Job, payload interface{}) (Delivery, error) {
	doc, err := s.create(ctx, childVariant{
		store:    s.store,
		typ:      TypeDelivery,
		jobID:    job.ID(),
		path:     DeliveryPath,
		requires: repository.OffersPath,
	}, payload)
	if err != nil {
		return Delivery{}, err
	}
	return Delivery{Document: doc, Job: job}, nil
}

// AcceptDelivery stores the acceptance and finishes the job in the same write.
func (s *Service) AcceptDelivery(ctx context.Context, delivery Delivery, payload interface{}) (AcceptDelivery, error) {
	doc, err := s.create(ctx, childVariant{
		store:  s.store,
		typ:    TypeAcceptDelivery,
		jobID:  delivery.Job.ID(),
		path:   AcceptDeliveryPath,
		finish: true,
	}, payload)
	if err != nil {
		return AcceptDelivery{}, err
	}
	return AcceptDelivery{Document: doc, Delivery: delivery}, nil
}

func (s *Service) CreateDispute(ctx context.Context, job Job, payload interface{}) (Dispute, error) {
	doc, err := s.create(ctx, childVariant{
		store: s.store,
		typ:   TypeDispute,
		jobID: job.ID(),
		path:  DisputePath,
	}, payload)
	if err != nil {
		return Dispute{}, err
	}
	return Dispute{Document: doc, Job: job}, nil
}

func (s *Service) ResolveDispute(ctx context.Context, dispute Dispute, payload interface{}) (DisputeResolution, error) {
	doc, err := s.create(ctx, childVariant{
		store: s.store,
		typ:   TypeDisputeResolution,
		jobID: dispute.Job.ID(),
		path:  ResolutionPath,
	}, payload)
	if err != nil {
		return DisputeResolution{}, err
	}
	return DisputeResolution{Document: doc, Dispute: dispute}, nil
}

// AcceptResolution stores the acceptance of a resolved dispute and finishes the job in the same write.
func (s *Service) AcceptResolution(ctx context.Context, dispute Dispute, payload interface{}) (AcceptDisputeResolution, error) {
	doc, err := s.create(ctx, childVariant{
		store:    s.store,
		typ:      TypeAcceptDisputeResolution,
		jobID:    dispute.Job.ID(),
		path:     AcceptResolutionPath,
		requires: ResolutionPath,
		finish:   true,
	}, payload)
	if err != nil {
		return AcceptDisputeResolution{}, err
	}
	return AcceptDisputeResolution{Document: doc, Dispute: dispute}, nil
}

// FindUser looks the user up by id, login or email.
func (s *Service) FindUser(ctx context.Context, key string) (User, error) {
	doc, err := s.store.FindUser(ctx, key)
	if err != nil {
		return User{}, storeError(err, "user", key)
	}
	return User{Document: doc}, nil
}

func (s *Service) Users(ctx context.Context) ([]User, error) {
	docs, err := s.store.FindUsers(ctx)
	if err != nil {
		return nil, err
	}
	users := make([]User, len(docs))
	for i, d := range docs {
		users[i] = User{Document: d}
	}
	return users, nil
}

func (s *Service) FindJob(ctx context.Context, jobID string) (Job, error) {
	doc, err := s.store.FindJob(ctx, jobID)
	if err != nil {
		return Job{}, storeError(err, "job", jobID)
	}
	return Job{Document: doc}, nil
}

// Jobs lists the jobs in the order they were created, without the finished ones when activeOnly is set.
func (s *Service) Jobs(ctx context.Context, activeOnly bool) ([]Job, error) {
	docs, err := s.store.FindJobs(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	jobs := make([]Job, len(docs))
	for i, d := range docs {
		jobs[i] = Job{Document: d}
	}
	return jobs, nil
}

// jobHolding loads the job in which the document with id is stored under path.
func (s *Service) jobHolding(ctx context.Context, path, what, id string) (Job, error) {
	jobID, err := s.store.FindJobID(ctx, path+"."+model.KeyID, id)
	if err != nil {
		return Job{}, storeError(err, what, id)
	}
	return s.FindJob(ctx, jobID)
}

func (s *Service) FindBid(ctx context.Context, bidID string) (Bid, error) {
	job, err := s.jobHolding(ctx, repository.BidsField, TypeBid, bidID)
	if err != nil {
		return Bid{}, err
	}
	return job.Bid(bidID)
}

func (s *Service) FindOffer(ctx context.Context, offerID string) (Offer, error) {
	job, err := s.jobHolding(ctx, repository.OffersPath, TypeOffer, offerID)
	if err != nil {
		return Offer{}, err
	}
	bid, err := job.OfferedBid()
	if err != nil {
		return Offer{}, err
	}
	offer, err := bid.Offer()
	if err != nil {
		return Offer{}, err
	}
	if offer.ID() != offerID {
		return Offer{}, notFound("offer %s", offerID)
	}
	return offer, nil
}

func (s *Service) FindDelivery(ctx context.Context, deliveryID string) (Delivery, error) {
	job, err := s.jobHolding(ctx, DeliveryPath, TypeDelivery, deliveryID)
	if err != nil {
		return Delivery{}, err
	}
	return job.Delivery()
}

func (s *Service) FindDeliveryAcceptance(ctx context.Context, acceptanceID string) (AcceptDelivery, error) {
	job, err := s.jobHolding(ctx, AcceptDeliveryPath, TypeAcceptDelivery, acceptanceID)
	if err != nil {
		return AcceptDelivery{}, err
	}
	delivery, err := job.Delivery()
	if err != nil {
		return AcceptDelivery{}, err
	}
	return delivery.Acceptance()
}

func (s *Service) FindDispute(ctx context.Context, disputeID string) (Dispute, error) {
	job, err := s.jobHolding(ctx, DisputePath, TypeDispute, disputeID)
	if err != nil {
		return Dispute{}, err
	}
	return job.Dispute()
}

func (s *Service) FindResolution(ctx context.Context, resolutionID string) (DisputeResolution, error) {
	job, err := s.jobHolding(ctx, ResolutionPath, TypeDisputeResolution, resolutionID)
	if err != nil {
		return DisputeResolution{}, err
	}
	dispute, err := job.Dispute()
	if err != nil {
		return DisputeResolution{}, err
	}
	return dispute.Resolution()
}

func (s *Service) FindResolutionAcceptance(ctx context.Context, acceptanceID string) (AcceptDisputeResolution, error) {
	job, err := s.jobHolding(ctx, AcceptResolutionPath, TypeAcceptDisputeResolution, acceptanceID)
	if err != nil {
		return AcceptDisputeResolution{}, err
	}
	dispute, err := job.Dispute()
	if err != nil {
		return AcceptDisputeResolution{}, err
	}
	return dispute.Acceptance()
}
