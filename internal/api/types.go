package api

type AccountDTO struct {
	Puuid    string `json:"puuid" validate:"required"`
	GameName string `json:"gameName"`
	TagLine  string `json:"tagLine"`
}

type SummonerDTO struct {
	ID            string `json:"id"`
	AccountID     string `json:"accountId"`
	Puuid         string `json:"puuid" validate:"required"`
	ProfileIconID int    `json:"profileIconId"`
	SummonerLevel int    `json:"summonerLevel" validate:"gte=0"`
}

type LeagueEntryDTO struct {
	LeagueID     string `json:"leagueId"`
	QueueType    string `json:"queueType" validate:"required"`
	Tier         string `json:"tier"`
	Rank         string `json:"rank"`
	LeaguePoints int    `json:"leaguePoints" validate:"gte=0"`
	Wins         int    `json:"wins" validate:"gte=0"`
	Losses       int    `json:"losses" validate:"gte=0"`
}

type MatchDTO struct {
	Metadata MatchMetadataDTO `json:"metadata"`
	Info     MatchInfoDTO     `json:"info"`
}

type MatchMetadataDTO struct {
	MatchID      string   `json:"matchId" validate:"required"`
	Participants []string `json:"participants"`
}

// MatchInfoDTO only requires the creation time; records missing the other
// fields the dashboard needs are dropped when merged.
type MatchInfoDTO struct {
	GameCreation int64            `json:"gameCreation" validate:"required,gt=0"`
	GameDuration int64            `json:"gameDuration"`
	GameMode     string           `json:"gameMode"`
	QueueID      int              `json:"queueId"`
	Participants []ParticipantDTO `json:"participants" validate:"omitempty,dive"`
}

type ParticipantDTO struct {
	Puuid        string `json:"puuid" validate:"required"`
	ChampionID   int    `json:"championId"`
	ChampionName string `json:"championName"`
	Kills        int    `json:"kills" validate:"gte=0"`
	Deaths       int    `json:"deaths" validate:"gte=0"`
	Assists      int    `json:"assists" validate:"gte=0"`
	Win          bool   `json:"win"`

	AllInPings         int `json:"allInPings"`
	AssistMePings      int `json:"assistMePings"`
	BaitPings          int `json:"baitPings"`
	BasicPings         int `json:"basicPings"`
	CommandPings       int `json:"commandPings"`
	DangerPings        int `json:"dangerPings"`
	EnemyMissingPings  int `json:"enemyMissingPings"`
	EnemyVisionPings   int `json:"enemyVisionPings"`
	GetBackPings       int `json:"getBackPings"`
	HoldPings          int `json:"holdPings"`
	NeedVisionPings    int `json:"needVisionPings"`
	OnMyWayPings       int `json:"onMyWayPings"`
	PushPings          int `json:"pushPings"`
	VisionClearedPings int `json:"visionClearedPings"`
}

// PingCounts keys each non-zero ping type by its upstream field name.
func (p ParticipantDTO) PingCounts() map[string]int {
	all := map[string]int{
		"allInPings":         p.AllInPings,
		"assistMePings":      p.AssistMePings,
		"baitPings":          p.BaitPings,
		"basicPings":         p.BasicPings,
		"commandPings":       p.CommandPings,
		"dangerPings":        p.DangerPings,
		"enemyMissingPings":  p.EnemyMissingPings,
		"enemyVisionPings":   p.EnemyVisionPings,
		"getBackPings":       p.GetBackPings,
		"holdPings":          p.HoldPings,
		"needVisionPings":    p.NeedVisionPings,
		"onMyWayPings":       p.OnMyWayPings,
		"pushPings":          p.PushPings,
		"visionClearedPings": p.VisionClearedPings,
	}
	for k, v := range all {
		if v == 0 {
			delete(all, k)
		}
	}
	if len(all) == 0 {
		return nil
	}
	return all
}
