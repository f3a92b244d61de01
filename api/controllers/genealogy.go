package controllers

import (
	"net/http"

	"github.com/padmaajarasooi/padmaaja-backend/api/responses"
	"github.com/padmaajarasooi/padmaaja-backend/api/validators"
	"github.com/padmaajarasooi/padmaaja-backend/internal/genealogy"
	"github.com/padmaajarasooi/padmaaja-backend/pkg/logger"
)

// GenealogyTree returns the caller's downline. Depth defaults to the
// service's configured value and is clamped there.
func GenealogyTree(svc genealogy.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		depth, err := validators.ParseQueryInt(r, "depth", 0, 0, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		tree, err := svc.Tree(r.Context(), userID, depth)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, tree)
	}
}

// AdminGenealogyTree lets an admin inspect any member's downline.
func AdminGenealogyTree(svc genealogy.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rootID, err := pathUUID(r, "userID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		depth, err := validators.ParseQueryInt(r, "depth", 0, 0, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		tree, err := svc.Tree(r.Context(), rootID, depth)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, tree)
	}
}
