package catalog

import (
	"net/http"

	"github.com/packlane/packlane-backend/api/responses"
	catalogsvc "github.com/packlane/packlane-backend/internal/catalog"
	pkgerrors "github.com/packlane/packlane-backend/pkg/errors"
	"github.com/packlane/packlane-backend/pkg/logger"
)

// GetOffer returns the active products and variants the builder renders.
func GetOffer(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		offer, err := svc.GetOffer(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, offer)
	}
}
