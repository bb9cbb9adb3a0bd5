package persist

import (
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/quasilyte/gdata/v2"
)

// documentProperty gdata 对象下保存存档的属性名
const documentProperty = "document"

// InstanceID 按应用名生成稳定的实例ID，重启后能找到上次的存档
func InstanceID(appName string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("floatrand:"+appName))
}

// Store 存档存储
//
// 每个随机器实例以自己的 ID 作为 gdata 对象名，多个实例共用一个存储。
// gdata 不可用时进入降级模式，存档只保存在内存中。
type Store struct {
	gdataManager *gdata.Manager // 可为 nil（降级模式）
	memory       map[string][]byte
}

// NewStore 创建存储
//
// 参数：
//   - gdataManager: gdata 存储管理器，可为 nil（降级模式，仅内存）
func NewStore(gdataManager *gdata.Manager) *Store {
	return &Store{
		gdataManager: gdataManager,
		memory:       make(map[string][]byte),
	}
}

// OpenStore 按应用名打开 gdata 存储
// 打开失败时记录警告并返回降级模式的存储
func OpenStore(appName string) *Store {
	manager, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		log.Printf("[Store] Warning: Failed to open gdata storage %q: %v (memory only)", appName, err)
		return NewStore(nil)
	}
	return NewStore(manager)
}

// Persistent 是否写入磁盘
func (s *Store) Persistent() bool {
	return s.gdataManager != nil
}

// Save 保存存档
func (s *Store) Save(key string, d Document) error {
	data, err := Encode(d)
	if err != nil {
		return err
	}

	if s.gdataManager == nil {
		s.memory[key] = data
		return nil
	}

	if err := s.gdataManager.SaveObjectProp(key, documentProperty, data); err != nil {
		return fmt.Errorf("failed to save document %s: %w", key, err)
	}
	log.Printf("[Store] Document %s saved (%d keys)", key, len(d))
	return nil
}

// Load 读取存档
//
// 返回：
//   - Document: 存档
//   - bool: 存档是否存在
//   - error: 读取或解码失败时返回错误
func (s *Store) Load(key string) (Document, bool, error) {
	var data []byte
	if s.gdataManager == nil {
		var ok bool
		data, ok = s.memory[key]
		if !ok {
			return nil, false, nil
		}
	} else {
		if !s.gdataManager.ObjectPropExists(key, documentProperty) {
			return nil, false, nil
		}
		var err error
		data, err = s.gdataManager.LoadObjectProp(key, documentProperty)
		if err != nil {
			return nil, true, fmt.Errorf("failed to load document %s: %w", key, err)
		}
	}

	d, err := Decode(data)
	if err != nil {
		return nil, true, err
	}
	return d, true, nil
}
