package models

import "time"

type Profile struct {
	ID          int64  `json:"id,string"`
	DisplayName string `json:"displayName"`
	Avatar      string `json:"avatar"`
	Banner      string `json:"banner"`
	Status      string `json:"status"`
	StatusText  string `json:"statusText"`
}

type Server struct {
	ID        int64     `json:"id,string"`
	OwnerID   int64     `json:"ownerID,string"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type ServerMember struct {
	ServerID int64 `json:"serverID,string"`
	UserID   int64 `json:"userID,string"`
}

type Channel struct {
	ID       int64  `json:"id,string"`
	ServerID int64  `json:"serverID,string"`
	Name     string `json:"name"`
}

type Friend struct {
	UserID   int64 `json:"userID,string"`
	FriendID int64 `json:"friendID,string"`
}

// DMRoom participants are always stored with UserOne < UserTwo.
type DMRoom struct {
	ID        int64     `json:"id,string"`
	UserOne   int64     `json:"userOne,string"`
	UserTwo   int64     `json:"userTwo,string"`
	CreatedAt time.Time `json:"createdAt"`
	Other     *Profile  `json:"other,omitempty"`
}

// Exactly one of ChannelID and DMRoomID is set.
type Message struct {
	ID         int64     `json:"id,string"`
	AuthorID   int64     `json:"authorID,string"`
	AuthorName string    `json:"authorName"`
	Avatar     string    `json:"avatar"`
	Content    string    `json:"content"`
	ChannelID  *int64    `json:"channelID,string,omitempty"`
	DMRoomID   *int64    `json:"dmRoomID,string,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

type ConfigFile struct {
	Address           string
	Port              string
	TlsCert           string
	TlsKey            string
	Cors              bool
	PrintHttpRequests bool
	LogToFile         bool
	LogFile           string
	LogMaxSizeMB      int
	LogMaxBackups     int
	LogMaxAgeDays     int
	LogLevel          string
	JwtSecret         string
	SnowflakeWorkerID int64
	SelfContained     bool
	SqlitePath        string
	DbUser            string
	DbPassword        string
	DbAddress         string
	DbPort            string
	DbDatabase        string
	RedisAddress      string
	RedisPassword     string
	RedisDB           int
	FriendPolicy      string
	DefaultAvatar     string
	MetricsEnabled    bool
}
