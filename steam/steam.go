package steam

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/steamboard/steamboard/utils"
)

const defaultAPIBaseURL = "https://api.steampowered.com"

// Client talks to the Steam Web API. APIBaseURL and HTTPClient are
// exported so tests can point it at an httptest server.
type Client struct {
	APIKey     string
	APIBaseURL string
	HTTPClient *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		APIKey:     apiKey,
		APIBaseURL: defaultAPIBaseURL,
		HTTPClient: &http.Client{
			Timeout:   10 * time.Second,
			Transport: &utils.UARoundtripper{RT: http.DefaultTransport},
		},
	}
}

type Player struct {
	SteamID     string `json:"steamid"`
	PersonaName string `json:"personaname"`
	TimeCreated int64  `json:"timecreated"`
	Avatar      string `json:"avatarfull"`
	ProfileURL  string `json:"profileurl"`
}

type playerSummariesResponse struct {
	Response struct {
		Players []Player `json:"players"`
	} `json:"response"`
}

type OwnedGame struct {
	AppID           int    `json:"appid"`
	Name            string `json:"name"`
	PlaytimeForever int    `json:"playtime_forever"`
	Playtime2Weeks  int    `json:"playtime_2weeks,omitempty"`
	ImgIconURL      string `json:"img_icon_url,omitempty"`
}

type OwnedGames struct {
	GameCount int         `json:"game_count"`
	Games     []OwnedGame `json:"games"`
}

type ownedGamesResponse struct {
	Response OwnedGames `json:"response"`
}

type RecentlyPlayed struct {
	TotalCount int         `json:"total_count"`
	Games      []OwnedGame `json:"games"`
}

type recentlyPlayedResponse struct {
	Response RecentlyPlayed `json:"response"`
}

type steamLevelResponse struct {
	Response struct {
		PlayerLevel int `json:"player_level"`
	} `json:"response"`
}

type NewsItem struct {
	GID      string `json:"gid"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	Contents string `json:"contents"`
	Date     int64  `json:"date"`
}

type newsResponse struct {
	AppNews struct {
		AppID     int        `json:"appid"`
		NewsItems []NewsItem `json:"newsitems"`
	} `json:"appnews"`
}

type currentPlayersResponse struct {
	Response struct {
		PlayerCount int `json:"player_count"`
		Result      int `json:"result"`
	} `json:"response"`
}

type AchievementPercent struct {
	Name    string  `json:"name"`
	Percent float64 `json:"percent"`
}

type achievementPercentagesResponse struct {
	AchievementPercentages struct {
		Achievements []AchievementPercent `json:"achievements"`
	} `json:"achievementpercentages"`
}

type Badge struct {
	BadgeID        int   `json:"badgeid"`
	Level          int   `json:"level"`
	CompletionTime int64 `json:"completion_time"`
	XP             int   `json:"xp"`
	Scarcity       int   `json:"scarcity"`
}

type Badges struct {
	Badges      []Badge `json:"badges"`
	PlayerXP    int     `json:"player_xp"`
	PlayerLevel int     `json:"player_level"`
	XPToLevelUp int     `json:"player_xp_needed_to_level_up"`
}

type badgesResponse struct {
	Response Badges `json:"response"`
}

type PlayerAchievement struct {
	APIName    string `json:"apiname"`
	Achieved   int    `json:"achieved"`
	UnlockTime int64  `json:"unlocktime"`
}

// GameAchievements is the per-game unlock state for one player. Success
// is false for games that expose no achievement schema.
type GameAchievements struct {
	GameName     string              `json:"gameName"`
	Achievements []PlayerAchievement `json:"achievements"`
	Success      bool                `json:"success"`
}

type playerAchievementsResponse struct {
	PlayerStats GameAchievements `json:"playerstats"`
}

func (c *Client) get(path string, params url.Values, out any) error {
	params.Set("key", c.APIKey)
	params.Set("format", "json")
	endpoint := fmt.Sprintf("%s%s?%s", c.APIBaseURL, path, params.Encode())

	req, err := http.NewRequest("GET", endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("steam returned %d for %s", res.StatusCode, path)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}

func (c *Client) GetPlayerSummary(steamID string) (Player, error) {
	var resp playerSummariesResponse
	params := url.Values{"steamids": {steamID}}
	if err := c.get("/ISteamUser/GetPlayerSummaries/v0002/", params, &resp); err != nil {
		return Player{}, err
	}
	if len(resp.Response.Players) == 0 {
		return Player{}, fmt.Errorf("no player found for steam id %s", steamID)
	}
	return resp.Response.Players[0], nil
}

func (c *Client) GetOwnedGames(steamID string) (OwnedGames, error) {
	var resp ownedGamesResponse
	params := url.Values{
		"steamid":                   {steamID},
		"include_appinfo":           {"1"},
		"include_played_free_games": {"1"},
	}
	if err := c.get("/IPlayerService/GetOwnedGames/v0001/", params, &resp); err != nil {
		return OwnedGames{}, err
	}
	return resp.Response, nil
}

func (c *Client) GetRecentlyPlayed(steamID string) (RecentlyPlayed, error) {
	var resp recentlyPlayedResponse
	params := url.Values{"steamid": {steamID}, "count": {"0"}}
	if err := c.get("/IPlayerService/GetRecentlyPlayedGames/v0001/", params, &resp); err != nil {
		return RecentlyPlayed{}, err
	}
	return resp.Response, nil
}

func (c *Client) GetSteamLevel(steamID string) (int, error) {
	var resp steamLevelResponse
	params := url.Values{"steamid": {steamID}}
	if err := c.get("/IPlayerService/GetSteamLevel/v1/", params, &resp); err != nil {
		return 0, err
	}
	return resp.Response.PlayerLevel, nil
}

func (c *Client) GetNewsForApp(appID, count, maxLength int) ([]NewsItem, error) {
	var resp newsResponse
	params := url.Values{
		"appid":     {fmt.Sprint(appID)},
		"count":     {fmt.Sprint(count)},
		"maxlength": {fmt.Sprint(maxLength)},
	}
	if err := c.get("/ISteamNews/GetNewsForApp/v0002/", params, &resp); err != nil {
		return nil, err
	}
	return resp.AppNews.NewsItems, nil
}

func (c *Client) GetNumberOfCurrentPlayers(appID int) (int, error) {
	var resp currentPlayersResponse
	params := url.Values{"appid": {fmt.Sprint(appID)}}
	if err := c.get("/ISteamUserStats/GetNumberOfCurrentPlayers/v1/", params, &resp); err != nil {
		return 0, err
	}
	return resp.Response.PlayerCount, nil
}

func (c *Client) GetBadges(steamID string) (Badges, error) {
	var resp badgesResponse
	params := url.Values{"steamid": {steamID}}
	if err := c.get("/IPlayerService/GetBadges/v1/", params, &resp); err != nil {
		return Badges{}, err
	}
	return resp.Response, nil
}

func (c *Client) GetPlayerAchievements(steamID string, appID int) (GameAchievements, error) {
	var resp playerAchievementsResponse
	params := url.Values{
		"steamid": {steamID},
		"appid":   {fmt.Sprint(appID)},
		"l":       {"en"},
	}
	if err := c.get("/ISteamUserStats/GetPlayerAchievements/v0001/", params, &resp); err != nil {
		return GameAchievements{}, err
	}
	return resp.PlayerStats, nil
}

func (c *Client) GetGlobalAchievementPercentages(appID int) ([]AchievementPercent, error) {
	var resp achievementPercentagesResponse
	params := url.Values{"gameid": {fmt.Sprint(appID)}}
	if err := c.get("/ISteamUserStats/GetGlobalAchievementPercentagesForApp/v0002/", params, &resp); err != nil {
		return nil, err
	}
	return resp.AchievementPercentages.Achievements, nil
}
