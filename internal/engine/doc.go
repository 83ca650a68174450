// Package engine 定义物理引擎后端的能力接口（Pdf / PdfSet）与全局后端注册表。
//
// 后端作者需要：
//  1. 在 internal/engine/<backend-key>/ 目录下实现 Pdf 与 PdfSet；
//  2. 在 init() 中调用 MustRegister 注册 Backend；
//  3. 通过 Loader 读取集合数据，不直接依赖 source 或 cache 包。
//
// 内置 noop 后端作为兜底实现，native 后端基于本仓库的 Member 数据模型求值。
package engine
