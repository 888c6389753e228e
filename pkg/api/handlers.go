package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/whereissam/chainsearch/pkg/classify"
	"github.com/whereissam/chainsearch/pkg/types"
	"github.com/whereissam/chainsearch/pkg/verify"
)

type errorResponse struct {
	Error      string                 `json:"error"`
	Code       string                 `json:"code,omitempty"`
	Suggestion string                 `json:"suggestion,omitempty"`
	Context    map[string]interface{} `json:"context,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// statusFor maps classified failure codes onto HTTP statuses.
func statusFor(code classify.Code) int {
	switch code {
	case classify.CodeInvalidCriteria, classify.CodeInvalidIdentifier, classify.CodeInvalidReference,
		classify.CodeInvalidParameter, classify.CodeMissingParameter:
		return http.StatusBadRequest
	case classify.CodeInvalidCredential:
		return http.StatusUnauthorized
	case classify.CodeAccessDenied, classify.CodeNotOwned, classify.CodeInsufficientPermission:
		return http.StatusForbidden
	case classify.CodeAssetNotFound, classify.CodeContractNotFound, classify.CodeChainNotSupported,
		classify.CodeBlockNotFound:
		return http.StatusNotFound
	case classify.CodeRateLimited:
		return http.StatusTooManyRequests
	case classify.CodeTimeout, classify.CodeSearchTimeout:
		return http.StatusGatewayTimeout
	case classify.CodeServiceUnavailable, classify.CodeNetworkError:
		return http.StatusServiceUnavailable
	case classify.CodeSearchFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	if rec := classify.AsRecord(err); rec != nil {
		writeJSON(w, statusFor(rec.Code), errorResponse{
			Error:      rec.Message,
			Code:       string(rec.Code),
			Suggestion: rec.Suggestion,
			Context:    rec.Context,
		})
		return
	}
	if errors.Is(err, verify.ErrRuleNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// criteriaFromQuery builds search criteria from common query parameters.
func criteriaFromQuery(r *http.Request) (types.SearchCriteria, error) {
	var criteria types.SearchCriteria
	q := r.URL.Query()

	if chains := q.Get("chains"); chains != "" {
		for _, chain := range strings.Split(chains, ",") {
			criteria.Chains = append(criteria.Chains, types.ChainID(strings.TrimSpace(chain)))
		}
	}
	if limit := q.Get("limit"); limit != "" {
		v, err := strconv.Atoi(limit)
		if err != nil {
			return criteria, classify.NewRecord(classify.CodeInvalidParameter, "invalid limit: "+limit, err)
		}
		criteria.Limit = v
	}
	if offset := q.Get("offset"); offset != "" {
		v, err := strconv.Atoi(offset)
		if err != nil {
			return criteria, classify.NewRecord(classify.CodeInvalidParameter, "invalid offset: "+offset, err)
		}
		criteria.Offset = v
	}
	if sortBy := q.Get("sortBy"); sortBy != "" {
		criteria.SortBy = types.SortField(sortBy)
	}
	if sortOrder := q.Get("sortOrder"); sortOrder != "" {
		criteria.SortOrder = types.SortOrder(sortOrder)
	}
	if q.Get("verifiedOnly") == "true" {
		criteria.VerifiedOnly = true
	}
	return criteria, nil
}

func (s *Server) handleSearchByOwner(w http.ResponseWriter, r *http.Request) {
	criteria, err := criteriaFromQuery(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	result, err := s.engine.FindAssetsByOwner(r.Context(), chi.URLParam(r, "address"), criteria)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSearchByCollection(w http.ResponseWriter, r *http.Request) {
	criteria, err := criteriaFromQuery(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	chain := types.ChainID(r.URL.Query().Get("chain"))
	result, err := s.engine.FindAssetsByCollection(r.Context(), chi.URLParam(r, "ref"), chain, criteria)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleTextSearch(w http.ResponseWriter, r *http.Request) {
	criteria, err := criteriaFromQuery(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	result, err := s.engine.TextSearch(r.Context(), r.URL.Query().Get("q"), criteria)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleAdvancedSearch(w http.ResponseWriter, r *http.Request) {
	var criteria types.SearchCriteria
	if err := json.NewDecoder(r.Body).Decode(&criteria); err != nil {
		s.writeError(w, classify.NewRecord(classify.CodeInvalidCriteria, "invalid request body", err))
		return
	}

	result, err := s.engine.AdvancedSearch(r.Context(), criteria)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleQueryAsset(w http.ResponseWriter, r *http.Request) {
	chain := types.ChainID(chi.URLParam(r, "chain"))
	result, err := s.engine.QueryAsset(r.Context(), chain, types.AssetQueryOptions{
		AssetID: chi.URLParam(r, "assetID"),
		Chain:   chain,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !result.Found {
		writeJSON(w, http.StatusNotFound, errorResponse{
			Error: "asset not found",
			Code:  string(classify.CodeAssetNotFound),
		})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var opts types.VerificationOptions
	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
		s.writeError(w, classify.NewRecord(classify.CodeInvalidCriteria, "invalid request body", err))
		return
	}

	result, err := s.verifier.Verify(r.Context(), opts.Chain, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type multiChainVerifyRequest struct {
	Chains  []types.ChainID           `json:"chains"`
	Options types.VerificationOptions `json:"options"`
}

func (s *Server) handleVerifyMultiChain(w http.ResponseWriter, r *http.Request) {
	var req multiChainVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, classify.NewRecord(classify.CodeInvalidCriteria, "invalid request body", err))
		return
	}

	result, err := s.verifier.VerifyMultiChain(r.Context(), req.Chains, req.Options)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSaveRule(w http.ResponseWriter, r *http.Request) {
	var rule verify.GatingRule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		s.writeError(w, classify.NewRecord(classify.CodeInvalidCriteria, "invalid request body", err))
		return
	}
	rule.Name = chi.URLParam(r, "name")

	if err := s.rules.Save(r.Context(), rule); err != nil {
		s.writeError(w, classify.NewRecord(classify.CodeInvalidCriteria, err.Error(), err))
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

func (s *Server) handleGetRule(w http.ResponseWriter, r *http.Request) {
	rule, err := s.rules.Load(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	if err := s.rules.Delete(r.Context(), chi.URLParam(r, "name")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type verifyRuleRequest struct {
	UserAddress string `json:"userAddress"`
}

func (s *Server) handleVerifyRule(w http.ResponseWriter, r *http.Request) {
	var req verifyRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, classify.NewRecord(classify.CodeInvalidCriteria, "invalid request body", err))
		return
	}

	result, err := s.verifier.VerifyRule(r.Context(), s.rules, chi.URLParam(r, "name"), req.UserAddress)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
