package config

type WorkerKeyStruct struct {
	// PersistResultsQueue holds result writes that failed on the timer path.
	PersistResultsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	PersistResultsQueue: "persist_results_queue",
}
