package main

import (
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

type feedEntry struct {
	Filename  string `json:"filename"`
	URL       string `json:"url"`
	Filetype  string `json:"filetype"`
	SizeBytes int64  `json:"size_bytes"`
}

func main() {
	dir := flag.String("dir", ".", "directory of changefiles to serve")
	addr := flag.String("addr", ":8080", "listen address")
	base := flag.String("base", "", "externally visible base URL (default http://<addr>)")
	flag.Parse()

	baseURL := *base
	if baseURL == "" {
		baseURL = "http://localhost" + *addr
	}

	http.HandleFunc("/feed/changefile", func(w http.ResponseWriter, r *http.Request) {
		entries, err := os.ReadDir(*dir)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		var list []feedEntry
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			info, err := e.Info()
			if err != nil {
				continue
			}
			list = append(list, feedEntry{
				Filename:  e.Name(),
				URL:       baseURL + "/files/" + e.Name(),
				Filetype:  filetypeOf(e.Name()),
				SizeBytes: info.Size(),
			})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"list": list})
	})

	http.HandleFunc("/files/", func(w http.ResponseWriter, r *http.Request) {
		name := filepath.Base(r.URL.Path[len("/files/"):])
		http.ServeFile(w, r, filepath.Join(*dir, name))
	})

	log.Printf("feedserve listening on %s, serving %s", *addr, *dir)
	log.Fatal(http.ListenAndServe(*addr, nil))
}

// filetypeOf reports the feed filetype for a changefile name; compression
// suffixes do not count.
func filetypeOf(name string) string {
	name = strings.TrimSuffix(name, ".gz")
	switch filepath.Ext(name) {
	case ".jsonl":
		return "jsonl"
	case ".csv":
		return "csv"
	default:
		return strings.TrimPrefix(filepath.Ext(name), ".")
	}
}
