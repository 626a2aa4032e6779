package domain

type ChampionSummary struct {
	Name    string  `json:"name"`
	Games   int     `json:"games"`
	WinRate float64 `json:"winRate"`
}

type PlayerStats struct {
	PlayerName         string          `json:"playerName"`
	GamesPlayed        int             `json:"gamesPlayed"`
	Wins               int             `json:"wins"`
	Losses             int             `json:"losses"`
	Kills              int             `json:"kills"`
	Deaths             int             `json:"deaths"`
	Assists            int             `json:"assists"`
	KDA                float64         `json:"kda"`
	AverageGameTime    float64         `json:"averageGameTime"`
	MostPlayedChampion ChampionSummary `json:"mostPlayedChampion"`
	AramGames          int             `json:"aramGames"`
	TotalPings         int             `json:"totalPings"`
	WinStreak          int             `json:"winStreak"`
	LoseStreak         int             `json:"loseStreak"`
}

type ChampionStats struct {
	Name    string `json:"name"`
	Games   int    `json:"games"`
	Wins    int    `json:"wins"`
	Kills   int    `json:"kills"`
	Deaths  int    `json:"deaths"`
	Assists int    `json:"assists"`
}

type Leader struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Games int     `json:"games,omitempty"`
}

type GlobalStats struct {
	TotalGames        int             `json:"totalGames"`
	AverageGameTime   float64         `json:"averageGameTime"`
	MostActivePlayer  Leader          `json:"mostActivePlayer"`
	HighestWinRate    Leader          `json:"highestWinrate"`
	MostPings         Leader          `json:"mostPings"`
	BestKDA           Leader          `json:"bestKDA"`
	LongestWinStreak  Leader          `json:"longestWinStreak"`
	LongestLoseStreak Leader          `json:"longestLoseStreak"`
	PlayerStats       []PlayerStats   `json:"playerStats"`
	ChampionStats     []ChampionStats `json:"championStats"`
}
