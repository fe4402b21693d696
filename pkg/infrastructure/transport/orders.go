package transport

import (
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"novacart/pkg/domain/model"
	"novacart/pkg/domain/service"
)

type placeOrderRequest struct {
	Items           []service.LineItem    `json:"items"`
	ShippingAddress model.ShippingAddress `json:"shippingAddress"`
	PaymentProof    string                `json:"paymentProof"`
	// TotalAmount is what the client displayed; the stored total is always recomputed.
	TotalAmount *decimal.Decimal `json:"totalAmount"`
}

type setStatusRequest struct {
	Status string `json:"status"`
}

func (s *server) placeOrder(w http.ResponseWriter, r *http.Request) {
	buyer := userFrom(r)
	var req placeOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	order, err := s.Orders.PlaceOrder(r.Context(), buyer.ID, req.Items, req.ShippingAddress, req.PaymentProof)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.TotalAmount != nil && !req.TotalAmount.Equal(order.TotalAmount) {
		s.logger.WithFields(logrus.Fields{
			"orderID":     order.ID,
			"clientTotal": req.TotalAmount.String(),
			"total":       order.TotalAmount.String(),
		}).Debug("client total differs from catalog total")
	}
	s.writeJSON(w, http.StatusCreated, order)
}

func (s *server) listOwnOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := s.Orders.ListBuyerOrders(r.Context(), userFrom(r).ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, orders)
}

func (s *server) listAllOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := s.Orders.ListAllOrders(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, orders)
}

func (s *server) setOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req setStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	status, err := model.ParseOrderStatus(req.Status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	order, err := s.Orders.SetStatus(r.Context(), id, status, userFrom(r).ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, order)
}
