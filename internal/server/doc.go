// Package server 承载 Fiber 诊断服务，并把配置装配为可用的 source：
// 共享的上游 HTTP 客户端、启动时构建一次的 SourceRegistry 以及路由中间件链。
// 路由处理器位于 routes 子包，依赖通过参数显式传入。
package server
