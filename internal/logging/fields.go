package logging

import "github.com/sirupsen/logrus"

// BaseFields 构建 action + 配置路径等基础字段，便于不同入口复用。
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// FetchFields 提供数据源/资源/缓存状态字段，供拉取流水线日志复用。
// state 取值 regular_hit、original_hit 或 miss。
func FetchFields(source, resource, state string) logrus.Fields {
	return logrus.Fields{
		"source":      source,
		"resource":    resource,
		"cache_state": state,
	}
}

// RequestFields 提供诊断接口的请求字段。
func RequestFields(requestID, method, path string, status int) logrus.Fields {
	return logrus.Fields{
		"request_id": requestID,
		"method":     method,
		"path":       path,
		"status":     status,
	}
}
