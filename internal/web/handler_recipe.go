package web

import "net/http"

func (s *Server) handleSuggestRecipes(w http.ResponseWriter, r *http.Request) {
	token, err := bearerToken(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	recipes, err := s.service.SuggestRecipes(r.Context(), token)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"recipes": recipes})
}
