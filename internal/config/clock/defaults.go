package clock

import "time"

const (
	// SourceSystem 使用本机时间
	SourceSystem = "system"
	// SourceNTP 按 NTP 服务器校正本机时间偏移
	SourceNTP = "ntp"

	defaultSource    = SourceSystem
	defaultNTPServer = "time.google.com"
)

var (
	defaultSyncInterval   = 5 * time.Minute
	defaultBackoffInitial = 5 * time.Second
	defaultBackoffMax     = 5 * time.Minute
)
