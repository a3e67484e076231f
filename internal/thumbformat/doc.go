// Package thumbformat 聚合缩略图输出格式（jpg/avif/png 等）的编码器，并提供统一的注册入口。
//
// 格式作者需要：
//   1. 在 internal/thumbformat/<format>/ 目录下实现 EncodeFunc；
//   2. 通过本包暴露的 MustRegister 在 init() 中注册格式元数据；
//   3. 保证编码结果只依赖输入像素与 Options，使同一 (id, 尺寸, 格式) 的产物可以永久缓存。
//
// 配置校验与图片派生引擎都通过 Resolve 查找格式，未注册的格式在启动阶段即被拒绝。
package thumbformat
