package client

const (
	// API settings
	FitVerb        = "fit"
	FitPredictVerb = "fitPredict"
	PredictVerb    = "predict"
	ModelsVerb     = "getModels"
	ModelVerb      = "getModel"
	RemoveVerb     = "removeModel"
	RebuildVerb    = "rebuild"
	StripVerb      = "strip"
)
