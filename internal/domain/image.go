package domain

// UploadedImage 是工作集中的一张输入图片。
//
// Data 在图片被移出工作集（或工作集被清空）时释放；处理流程只读不写。
type UploadedImage struct {
	ID           string
	OriginalName string
	Data         []byte
	Size         int64
}

// NamedBlob 是交给归档/保存协作者的 (name, bytes) 对。
type NamedBlob struct {
	Name string
	Data []byte
}
