package httpdto

type EraseResponse struct {
	MessagesErased int64 `json:"messages_erased"`
}

type SyncResponse struct {
	Synced  int `json:"synced"`
	Dropped int `json:"dropped"`
}
