package logging

import "github.com/sirupsen/logrus"

// BaseFields 构建 action + 配置路径等基础字段，便于不同入口复用。
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// ImageFields 提供图片 id 与源路径字段，供元数据与缩略图日志复用。
func ImageFields(action, id, src string) logrus.Fields {
	return logrus.Fields{
		"action":   action,
		"image_id": id,
		"src":      src,
	}
}

// ThumbFields 描述一次缩略图请求命中的存储层级（static/cache/encode）。
func ThumbFields(action, id, name, tier string) logrus.Fields {
	return logrus.Fields{
		"action":   action,
		"image_id": id,
		"thumb":    name,
		"tier":     tier,
	}
}

// CacheFields 提供集合缓存 key/判别值/命中状态字段。
func CacheFields(action, key, discriminator string, cacheHit bool) logrus.Fields {
	return logrus.Fields{
		"action":        action,
		"cache_key":     key,
		"discriminator": discriminator,
		"cache_hit":     cacheHit,
	}
}
