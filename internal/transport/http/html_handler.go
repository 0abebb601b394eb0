package http

import (
	"html/template"
	"net/http"
	"os"
	"path/filepath"
)

// ServeDashboard serves the dashboard page from the web directory
func ServeDashboard(webDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		indexPath := filepath.Join(webDir, "index.html")

		if _, err := os.Stat(indexPath); os.IsNotExist(err) {
			http.Error(w, "Dashboard page not found", http.StatusNotFound)
			return
		}

		serveHTML(w, r, indexPath)
	}
}

// serveHTML serves an HTML file with proper headers
func serveHTML(w http.ResponseWriter, r *http.Request, filePath string) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	tmpl, err := template.ParseFiles(filePath)
	if err != nil {
		http.Error(w, "Error loading page", http.StatusInternalServerError)
		return
	}

	if err := tmpl.Execute(w, nil); err != nil {
		http.Error(w, "Error rendering page", http.StatusInternalServerError)
		return
	}
}
