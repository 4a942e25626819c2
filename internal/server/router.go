package server

import (
	"context"
	"net/http"

	"fermentum/internal/handlers"
	applog "fermentum/internal/log"
)

func newRouter() http.Handler {
	mux := http.NewServeMux()
	applog.Debug(context.Background(), "registering http routes")
	mux.HandleFunc("/healthz", handlers.Health)
	applog.Debug(context.Background(), "route registered", "path", "/healthz")
	mux.HandleFunc("/login", handlers.Login)
	applog.Debug(context.Background(), "route registered", "path", "/login")
	mux.HandleFunc("/signup", handlers.Signup)
	applog.Debug(context.Background(), "route registered", "path", "/signup")
	mux.HandleFunc("/logout", handlers.Logout)
	applog.Debug(context.Background(), "route registered", "path", "/logout")

	mux.HandleFunc("/p/bottles/", handlers.PublicBottlePage)
	applog.Debug(context.Background(), "route registered", "path", "/p/bottles/", "public", true)

	protect := func(pattern string, handler http.HandlerFunc) {
		mux.Handle(pattern, handlers.RequireAuthentication(handler))
		applog.Debug(context.Background(), "route registered", "path", pattern, "protected", true)
	}

	protect("/app", handlers.Workspace)
	protect("/app/", handlers.Workspace)
	protect("/app/preferences/update", handlers.UpdatePreferences)
	protect("/app/tools/import-brew-sheet", handlers.ToolsImportBrewSheet)
	protect("/app/qr/", handlers.QRCode)
	protect("/app/api/batches", handlers.BatchResource)
	protect("/app/api/batches/", handlers.BatchResource)
	protect("/app/api/batch-ingredients", handlers.BatchIngredientResource)
	protect("/app/api/batch-ingredients/", handlers.BatchIngredientResource)
	protect("/app/api/ingredients", handlers.IngredientResource)
	protect("/app/api/ingredients/", handlers.IngredientResource)
	protect("/app/api/process-entries", handlers.ProcessEntryResource)
	protect("/app/api/process-entries/", handlers.ProcessEntryResource)
	protect("/app/api/products", handlers.FinishedProductResource)
	protect("/app/api/products/", handlers.FinishedProductResource)
	protect("/app/api/bottles/", handlers.BottleResource)
	protect("/app/api/shared-products", handlers.SharedProductResource)
	protect("/app/api/shared-products/", handlers.SharedProductResource)

	mux.HandleFunc("/", handlers.Landing)
	applog.Debug(context.Background(), "route registered", "path", "/")
	mux.Handle("/assets/", http.StripPrefix("/assets/", http.FileServer(http.Dir("web/static"))))
	applog.Debug(context.Background(), "route registered", "path", "/assets/", "static", true)
	return mux
}
