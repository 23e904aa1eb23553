package handler

import "github.com/go-chi/chi/v5"

// Mount registers the payroll routes under r, normally /api/v1/payroll
func Mount(r chi.Router, runs *PayrollHandler, comp *CompensationHandler) {
	r.Post("/preview", runs.Preview)
	r.Post("/preview/export", runs.PreviewExport)

	r.Route("/runs", func(r chi.Router) {
		r.Get("/", runs.ListRuns)
		r.Post("/", runs.Confirm)
		r.Get("/{id}", runs.GetRun)
		r.Get("/{id}/export", runs.ExportRun)
		r.Get("/{id}/details/{employeeId}", runs.GetRunDetail)
	})

	r.Route("/components", func(r chi.Router) {
		r.Get("/", comp.ListComponents)
		r.Post("/", comp.CreateComponent)
		r.Delete("/{id}", comp.DeleteComponent)
	})

	r.Route("/employees/{id}/assignment", func(r chi.Router) {
		r.Get("/", comp.CurrentStructure)
		r.Put("/", comp.AssignStructure)
	})
}
