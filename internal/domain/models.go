package domain

import (
	"fmt"
	"time"
)

// PlayerRecord is the persisted view of one tracked player.
type PlayerRecord struct {
	GameName      string           `json:"gameName"`
	TagLine       string           `json:"tagLine"`
	Puuid         string           `json:"puuid"`
	SummonerID    string           `json:"id"`
	AccountID     string           `json:"accountId"`
	ProfileIconID int              `json:"profileIconId"`
	SummonerLevel int              `json:"summonerLevel"`
	RankedInfo    []RankedStanding `json:"rankedInfo"`
	RecentMatches []MatchRecord    `json:"recentMatches"`
	LastUpdated   time.Time        `json:"lastUpdated"`
}

func (p *PlayerRecord) RiotID() string {
	return fmt.Sprintf("%s#%s", p.GameName, p.TagLine)
}

type RankedStanding struct {
	LeagueID     string `json:"leagueId"`
	QueueType    string `json:"queueType"`
	Tier         string `json:"tier"`
	Rank         string `json:"rank"`
	LeaguePoints int    `json:"leaguePoints"`
	Wins         int    `json:"wins"`
	Losses       int    `json:"losses"`
}

const (
	QueueSoloDuo = "Solo/Duo"
	QueueFlex    = "Flex"
)

// QueueLabel maps an upstream queue type to the label shown on the dashboard.
func QueueLabel(queueType string) string {
	if queueType == "RANKED_SOLO_5x5" {
		return QueueSoloDuo
	}
	return QueueFlex
}

type MatchRecord struct {
	Info MatchInfo `json:"info"`
}

type MatchInfo struct {
	GameCreation int64         `json:"gameCreation"`
	GameDuration int64         `json:"gameDuration"`
	GameMode     string        `json:"gameMode"`
	QueueID      int           `json:"queueId"`
	Participants []Participant `json:"participants"`
}

// Valid reports whether the match carries every field the dashboard needs.
func (m MatchRecord) Valid() bool {
	return m.Info.GameCreation > 0 &&
		m.Info.GameDuration > 0 &&
		m.Info.GameMode != "" &&
		len(m.Info.Participants) > 0
}

func (m MatchRecord) Participant(puuid string) (Participant, bool) {
	for _, p := range m.Info.Participants {
		if p.Puuid == puuid {
			return p, true
		}
	}
	return Participant{}, false
}

type Participant struct {
	Puuid        string         `json:"puuid"`
	ChampionID   int            `json:"championId"`
	ChampionName string         `json:"championName"`
	Kills        int            `json:"kills"`
	Deaths       int            `json:"deaths"`
	Assists      int            `json:"assists"`
	Win          bool           `json:"win"`
	Pings        map[string]int `json:"pings,omitempty"`
}

func (p Participant) TotalPings() int {
	total := 0
	for _, n := range p.Pings {
		total += n
	}
	return total
}

// Summoner is the identity block returned by the live player lookup.
type Summoner struct {
	ID            string `json:"id"`
	AccountID     string `json:"accountId"`
	Puuid         string `json:"puuid"`
	Name          string `json:"name"`
	ProfileIconID int    `json:"profileIconId"`
	SummonerLevel int    `json:"summonerLevel"`
}

type PlayerView struct {
	Summoner      Summoner         `json:"summoner"`
	RankedInfo    []RankedStanding `json:"rankedInfo"`
	RecentMatches []MatchRecord    `json:"recentMatches"`
}
