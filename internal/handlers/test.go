package handlers

import (
	"fmt"
	"net/http"
)

func (h *Handler) Test(w http.ResponseWriter, r *http.Request) {
	_, err := fmt.Fprint(w, "Hello world!")
	if err != nil {
		h.sugar.Error(err)
		return
	}
}
