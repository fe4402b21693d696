package transport

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"novacart/pkg/domain/model"
)

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		return uuid.Nil, badRequest("invalid id")
	}
	return id, nil
}

func (s *server) listProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	products, err := s.Products.ListProducts(r.Context(), model.ProductFilter{
		Category:  query.Get("category"),
		DealsOnly: query.Get("deals") == "true",
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, products)
}

func (s *server) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	product, err := s.Products.GetProduct(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, product)
}

func (s *server) createProduct(w http.ResponseWriter, r *http.Request) {
	var fields model.ProductFields
	if err := decodeJSON(r, &fields); err != nil {
		s.writeError(w, r, err)
		return
	}
	product, err := s.Products.CreateProduct(r.Context(), fields)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, product)
}

func (s *server) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var fields model.ProductFields
	if err := decodeJSON(r, &fields); err != nil {
		s.writeError(w, r, err)
		return
	}
	product, err := s.Products.UpdateProduct(r.Context(), id, fields)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, product)
}

func (s *server) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.Products.DeleteProduct(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, messageResponse{Message: "product deleted"})
}
