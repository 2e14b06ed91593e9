package dto

type VoteRequest struct {
	UserID   string `json:"user_id"`
	Nickname string `json:"nickname"`
}

type ManualSlotRequest struct {
	Nickname        string `json:"nickname"`
	AddedByUserID   string `json:"added_by_user_id"`
	AddedByNickname string `json:"added_by_nickname"`
}
