package global

import (
	"github.com/notewave/collab-note-service/pkg/fileurl"
)

var (
	// 程序执行目录
	ROOT string
	Name string = "Collab Note Service"
	// Version 构建时注入
	Version string = "dev"
)

func init() {

	filename := fileurl.GetExePath()
	ROOT = filename + "/"

}
