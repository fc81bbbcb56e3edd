package constants

import (
	"net/http"
	"time"
)

const AppName = "beacon"

// Server defaults
const (
	DefaultPort        = "8080"
	DefaultRootURLPath = "/"
	DefaultSiteName    = "Analytics"
	DefaultAuthFile    = "/etc/beacon/auth"
	DefaultDataFile    = "/etc/beacon/database.json"
)

// Credential file layout: [salt][usernameHash][passwordHash]
const (
	SaltLength     = 64
	HashLength     = 64
	HashIterations = 1000
	AuthFileSize   = SaltLength + 2*HashLength
)

// Session settings
const (
	AuthTokenLength       = 64
	SessionCookieName     = "analyticsAuthToken"
	SessionCookieSameSite = http.SameSiteStrictMode
	RedisKeyPrefix        = "beacon:session:"
)

// Retention and aggregation
const (
	DefaultRetentionDays = 30
	DefaultPurgeInterval = 24 * time.Hour
	SummaryChartNumDays  = 30
	MaxPostIDLength      = 255
)

// Brute force protection
const (
	MaxAuthAttempts       = 5
	BlockDuration         = 15 * time.Minute
	MaxAuditLogsPerMinute = 120
)

// API endpoints
const (
	EndpointLogin    = "/login"
	EndpointLogout   = "/logout"
	EndpointAuth     = "/auth"
	EndpointVisits   = "/api/posts/"
	EndpointLiveFeed = "/ws"
	EndpointRoot     = "/"
)

// Live feed
const (
	FeedWSBufferSize    = 4096
	MaxFeedClientsPerIP = 4
)

// Messages
const (
	MsgUnauthorized     = "Unauthorized user"
	MsgMethodNotAllowed = "Method not allowed"
	MsgInvalidRequest   = "Invalid request"
	MsgTooManyAttempts  = "Too many failed attempts. Try again later."
)
