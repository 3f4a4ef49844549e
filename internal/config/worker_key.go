package config

type WorkerKeyStruct struct {
	ThumbnailQueue string
}

var WorkerKey = &WorkerKeyStruct{
	ThumbnailQueue: "artbox:thumbnail_queue",
}
