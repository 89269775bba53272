package provider

// Domain 账号下的域名
type Domain struct {
	Name string // 域名 (如 example.com)
}

// RecordLine 解析线路
type RecordLine struct {
	Name string // 线路名称 (如 默认)
	ID   string // 线路ID，默认线路为 "0"
}

// DefaultLineID 默认线路的保留ID
const DefaultLineID = "0"

// DNSRecord DNS记录
type DNSRecord struct {
	RecordID string // 记录ID
	Domain   string // 主域名
	RR       string // 主机记录 (子域名)
	Type     string // 记录类型
	Value    string // 记录值
	Line     string // 解析线路
}
