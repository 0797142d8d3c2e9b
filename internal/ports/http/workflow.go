package http

import (
	"net/http"

	"causeway/internal/model"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
)

// getDocument writes the document returned by a read of the job named in the route.
func (ser *server) getDocument(read func(r *http.Request, jobID string) (model.Document, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, err := read(r, mux.Vars(r)["jobID"])
		if err != nil {
			ser.fail(w, err)
			return
		}
		ser.respond(w, r, doc.D())
	}
}

// postDocument consumes the token and creates the document through create.
func (ser *server) postDocument(create func(r *http.Request, token, jobID, payload string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, payload, ok := ser.submission(w, r)
		if !ok {
			return
		}
		if err := create(r, token, mux.Vars(r)["jobID"], payload); err != nil {
			ser.fail(w, err)
			return
		}
		ser.created(w)
	}
}

// BIDS

func (ser *server) getBids(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := ser.context(r)
	defer cancel()

	bids, err := ser.app.Bids(ctx, mux.Vars(r)["jobID"])
	if err != nil {
		ser.fail(w, err)
		return
	}

	list := make(bson.A, len(bids))
	for i, b := range bids {
		list[i] = b.D()
	}
	ser.respond(w, r, list)
}

func (ser *server) postBid(w http.ResponseWriter, r *http.Request) {
	ser.postDocument(func(r *http.Request, token, jobID, payload string) error {
		ctx, cancel := ser.context(r)
		defer cancel()
		_, err := ser.app.AddBid(ctx, token, jobID, payload)
		return err
	})(w, r)
}

func (ser *server) getBid(w http.ResponseWriter, r *http.Request) {
	ser.getDocument(func(r *http.Request, jobID string) (model.Document, error) {
		ctx, cancel := ser.context(r)
		defer cancel()
		bid, err := ser.app.Bid(ctx, jobID, mux.Vars(r)["bidID"])
		return bid.Document, err
	})(w, r)
}

// OFFERS

func (ser *server) getOffer(w http.ResponseWriter, r *http.Request) {
	ser.getDocument(func(r *http.Request, jobID string) (model.Document, error) {
		ctx, cancel := ser.context(r)
		defer cancel()
		offer, err := ser.app.Offer(ctx, jobID, mux.Vars(r)["bidID"])
		return offer.Document, err
	})(w, r)
}

func (ser *server) postOffer(w http.ResponseWriter, r *http.Request) {
	ser.postDocument(func(r *http.Request, token, jobID, payload string) error {
		ctx, cancel := ser.context(r)
		defer cancel()
		_, err := ser.app.CreateOffer(ctx, token, jobID, mux.Vars(r)["bidID"], payload)
		return err
	})(w, r)
}

// getOfferedBid answers with the bid of the job that received the offer.
func (ser *server) getOfferedBid(w http.ResponseWriter, r *http.Request) {
	ser.getDocument(func(r *http.Request, jobID string) (model.Document, error) {
		ctx, cancel := ser.context(r)
		defer cancel()
		bid, err := ser.app.OfferedBid(ctx, jobID)
		return bid.Document, err
	})(w, r)
}

// DELIVERY

func (ser *server) getDelivery(w http.ResponseWriter, r *http.Request) {
	ser.getDocument(func(r *http.Request, jobID string) (model.Document, error) {
		ctx, cancel := ser.context(r)
		defer cancel()
		delivery, err := ser.app.Delivery(ctx, jobID)
		return delivery.Document, err
	})(w, r)
}

func (ser *server) postDelivery(w http.ResponseWriter, r *http.Request) {
	ser.postDocument(func(r *http.Request, token, jobID, payload string) error {
		ctx, cancel := ser.context(r)
		defer cancel()
		_, err := ser.app.CreateDelivery(ctx, token, jobID, payload)
		return err
	})(w, r)
}

func (ser *server) getDeliveryAcceptance(w http.ResponseWriter, r *http.Request) {
	ser.getDocument(func(r *http.Request, jobID string) (model.Document, error) {
		ctx, cancel := ser.context(r)
		defer cancel()
		acceptance, err := ser.app.DeliveryAcceptance(ctx, jobID)
		return acceptance.Document, err
	})(w, r)
}

func (ser *server) postDeliveryAcceptance(w http.ResponseWriter, r *http.Request) {
	ser.postDocument(func(r *http.Request, token, jobID, payload string) error {
		ctx, cancel := ser.context(r)
		defer cancel()
		_, err := ser.app.AcceptDelivery(ctx, token, jobID, payload)
		return err
	})(w, r)
}

// DISPUTE

func (ser *server) getDispute(w http.ResponseWriter, r *http.Request) {
	ser.getDocument(func(r *http.Request, jobID string) (model.Document, error) {
		ctx, cancel := ser.context(r)
		defer cancel()
		dispute, err := ser.app.Dispute(ctx, jobID)
		return dispute.Document, err
	})(w, r)
}

func (ser *server) postDispute(w http.ResponseWriter, r *http.Request) {
	ser.postDocument(func(r *http.Request, token, jobID, payload string) error {
		ctx, cancel := ser.context(r)
		defer cancel()
		_, err := ser.app.CreateDispute(ctx, token, jobID, payload)
		return err
	})(w, r)
}

func (ser *server) getResolution(w http.ResponseWriter, r *http.Request) {
	ser.getDocument(func(r *http.Request, jobID string) (model.Document, error) {
		ctx, cancel := ser.context(r)
		defer cancel()
		resolution, err := ser.app.Resolution(ctx, jobID)
		return resolution.Document, err
	})(w, r)
}

func (ser *server) postResolution(w http.ResponseWriter, r *http.Request) {
	ser.postDocument(func(r *http.Request, token, jobID, payload string) error {
		ctx, cancel := ser.context(r)
		defer cancel()
		_, err := ser.app.ResolveDispute(ctx, token, jobID, payload)
		return err
	})(w, r)
}

func (ser *server) getResolutionAcceptance(w http.ResponseWriter, r *http.Request) {
	ser.getDocument(func(r *http.Request, jobID string) (model.Document, error) {
		ctx, cancel := ser.context(r)
		defer cancel()
		acceptance, err := ser.app.ResolutionAcceptance(ctx, jobID)
		return acceptance.Document, err
	})(w, r)
}

func (ser *server) postResolutionAcceptance(w http.ResponseWriter, r *http.Request) {
	ser.postDocument(func(r *http.Request, token, jobID, payload string) error {
		ctx, cancel := ser.context(r)
		defer cancel()
		_, err := ser.app.AcceptResolution(ctx, token, jobID, payload)
		return err
	})(w, r)
}
