// Package cache 是单个仓库的磁盘缓存，将每个 resource.Resource 映射到
// <DataPath>/<registry>/<resource path>。写入先落临时文件再 rename，读取方不会看到不完整内容；
// 同一路径的写入在进程内串行。集合归档解包到 Regular 文件旁，以 Original 形态命名，
// 获取流程无需重新下载即可转换成员。
package cache
