package main

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// Upstream lento para validar à mão os guards do gateway:
//
//	/download?size=N      devolve N bytes (bom para ver MAX_BANDWIDTH_BPS)
//	/upload               lê o corpo inteiro e devolve o tamanho (MAX_CONTENT_LENGTH)
//	/sleep?d=5s           dorme antes de responder (CONNECTION_TIMEOUT, CONCURRENCY_MAX)
func main() {
	http.HandleFunc("/download", func(w http.ResponseWriter, r *http.Request) {
		size, err := strconv.Atoi(r.URL.Query().Get("size"))
		if err != nil || size < 0 {
			size = 64 << 10
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Length", strconv.Itoa(size))
		buf := make([]byte, 4096)
		for size > 0 {
			n := min(size, len(buf))
			if _, err := w.Write(buf[:n]); err != nil {
				fmt.Printf("Log: download interrompido: %s\n", err)
				return
			}
			size -= n
		}
	})
	http.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		n, err := io.Copy(io.Discard, r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		fmt.Printf("Log: upload de %d bytes recebido\n", n)
		fmt.Fprintf(w, "recebidos %d bytes\n", n)
	})
	http.HandleFunc("/sleep", func(w http.ResponseWriter, r *http.Request) {
		d, err := time.ParseDuration(r.URL.Query().Get("d"))
		if err != nil {
			d = 5 * time.Second
		}
		time.Sleep(d)
		fmt.Fprintf(w, "acordei depois de %s\n", d)
	})
	fmt.Println("Servidor rodando em http://localhost:8081")
	err := http.ListenAndServe(":8081", nil)
	if err != nil {
		fmt.Printf("Erro ao subir o servidor: %s\n", err)
	}
}
