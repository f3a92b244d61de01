package controllers

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/padmaajarasooi/padmaaja-backend/api/responses"
	"github.com/padmaajarasooi/padmaaja-backend/internal/bulk"
	pkgerrors "github.com/padmaajarasooi/padmaaja-backend/pkg/errors"
	"github.com/padmaajarasooi/padmaaja-backend/pkg/logger"
)

const maxImportBytes = 10 << 20 // 10 MiB

// importBody returns the CSV stream whether the client sent a multipart
// form with a "file" field or a raw text/csv body.
func importBody(r *http.Request) (io.ReadCloser, error) {
	contentType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "missing content type")
	}
	if strings.HasPrefix(contentType, "multipart/") {
		if err := r.ParseMultipartForm(maxImportBytes); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form")
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "multipart field 'file' required")
		}
		return file, nil
	}
	return http.MaxBytesReader(nil, r.Body, maxImportBytes), nil
}

// AdminProductImport loads a product CSV. The whole file is validated first
// and nothing is written unless every row passes.
func AdminProductImport(importer *bulk.Importer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := importBody(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer body.Close()

		result, err := importer.ImportProducts(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func csvAttachment(w http.ResponseWriter, prefix string) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", prefix+"-"+time.Now().UTC().Format("20060102-150405")+".csv"))
}

// AdminCommissionExport streams commissions as CSV, honoring the same
// filters as the admin listing.
func AdminCommissionExport(exporter *bulk.Exporter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filters, err := commissionFiltersFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		csvAttachment(w, "commissions")
		if err := exporter.ExportCommissions(r.Context(), w, filters); err != nil {
			// Headers are already gone; log instead of writing a JSON error
			// into the CSV stream.
			logg.Error(r.Context(), "commission export aborted", err)
		}
	}
}

func AdminOrderExport(exporter *bulk.Exporter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filters, err := orderFiltersFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		csvAttachment(w, "orders")
		if err := exporter.ExportOrders(r.Context(), w, filters); err != nil {
			logg.Error(r.Context(), "order export aborted", err)
		}
	}
}
