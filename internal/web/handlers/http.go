package handlers

import (
	"encoding/json"
	"net/http"
)

func SetSuccessJson(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
}

func WriteJson(w http.ResponseWriter, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	SetSuccessJson(w)
	_, err = w.Write(data)
	return err
}
