package core

import "dnspod-certbot/internal/provider"

// SelectDefaultLine 选择创建记录使用的解析线路：
// 优先使用ID为 "0" 的默认线路，没有则使用提供商返回的第一条
func SelectDefaultLine(lines []provider.RecordLine) (provider.RecordLine, error) {
	if len(lines) == 0 {
		return provider.RecordLine{}, ErrNoLineAvailable
	}
	for _, line := range lines {
		if line.ID == provider.DefaultLineID {
			return line, nil
		}
	}
	return lines[0], nil
}
