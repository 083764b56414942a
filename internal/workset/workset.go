package workset

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/John-Robertt/imgren/internal/domain"
)

// Set 是当前会话的图片工作集（保持加入顺序）。
//
// 约束：
// - 移除或清空时立即释放图片字节，避免反复导入造成内存无界增长
// - Images 返回快照：处理流程持有的是切片副本，调用方后续增删不影响进行中的 run
type Set struct {
	mu     sync.Mutex
	images []domain.UploadedImage
	newID  func() string
}

func New() *Set {
	return &Set{newID: uuid.NewString}
}

// Add 以 name/data 新建一张图片并返回其 ID。
func (s *Set) Add(name string, data []byte) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.newID == nil {
		s.newID = uuid.NewString
	}
	img := domain.UploadedImage{
		ID:           s.newID(),
		OriginalName: name,
		Data:         data,
		Size:         int64(len(data)),
	}
	s.images = append(s.images, img)
	return img.ID
}

// AddFile 读取 path 并以其文件名加入工作集。
func (s *Set) AddFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("读取图片失败：%w", err)
	}
	return s.Add(filepath.Base(path), b), nil
}

// Remove 移除 id 对应的图片并释放其字节；id 不存在时返回 false。
func (s *Set) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.images {
		if s.images[i].ID != id {
			continue
		}
		// 末尾槽位在移位后会残留一份旧值，必须清零，否则底层数组仍引用字节。
		last := len(s.images) - 1
		copy(s.images[i:], s.images[i+1:])
		s.images[last] = domain.UploadedImage{}
		s.images = s.images[:last]
		return true
	}
	return false
}

// Clear 清空工作集并释放全部字节。
func (s *Set) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.images {
		s.images[i].Data = nil
	}
	s.images = nil
}

func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.images)
}

func (s *Set) Get(id string) (domain.UploadedImage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, img := range s.images {
		if img.ID == id {
			return img, true
		}
	}
	return domain.UploadedImage{}, false
}

// Images 返回当前图片列表的快照（按加入顺序）。
func (s *Set) Images() []domain.UploadedImage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.UploadedImage(nil), s.images...)
}
