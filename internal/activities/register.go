package activities

import "go.temporal.io/sdk/worker"

func Register(w worker.Worker, a *Activities) {
	w.RegisterActivity(a.BeginTurnActivity)
	w.RegisterActivity(a.GenerateActivity)
	w.RegisterActivity(a.AnnotateActivity)
	w.RegisterActivity(a.PostProcessActivity)
	w.RegisterActivity(a.PersistAssistantActivity)
	w.RegisterActivity(a.ConsumeCreditActivity)
	w.RegisterActivity(a.LogProviderCallActivity)
}
