package dao

import (
	"context"
	"fmt"
	"strings"

	"github.com/notewave/collab-note-service/internal/domain"
	"github.com/notewave/collab-note-service/internal/model"
)

// noteRepository 实现 domain.NoteRepository 接口
type noteRepository struct {
	dao *Dao
}

// NewNoteRepository 创建 NoteRepository 实例
func NewNoteRepository(dao *Dao) domain.NoteRepository {
	return &noteRepository{dao: dao}
}

// toDomain 将数据库模型转换为领域模型
func (r *noteRepository) toDomain(m *model.Note) *domain.Note {
	if m == nil {
		return nil
	}
	note := &domain.Note{
		ID:                 m.ID,
		Title:              m.Title,
		Content:            m.Content,
		Owner:              m.Owner,
		OwnerEmail:         m.OwnerEmail,
		OwnerName:          m.OwnerName,
		Collaborators:      make([]domain.Collaborator, 0, len(m.Collaborators)),
		CollaboratorEmails: append([]string{}, m.CollaboratorEmails...),
		Pinned:             m.Pinned,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
	for _, c := range m.Collaborators {
		note.Collaborators = append(note.Collaborators, domain.Collaborator{
			Email:      c.Email,
			UID:        c.UID,
			Permission: domain.Permission(c.Permission),
			AddedAt:    c.AddedAt,
		})
	}
	return note
}

// toModel 将领域模型转换为数据库模型
func (r *noteRepository) toModel(n *domain.Note) *model.Note {
	if n == nil {
		return nil
	}
	m := &model.Note{
		ID:                 n.ID,
		Title:              n.Title,
		Content:            n.Content,
		Owner:              n.Owner,
		OwnerEmail:         n.OwnerEmail,
		OwnerName:          n.OwnerName,
		Collaborators:      toModelCollaborators(n.Collaborators),
		CollaboratorEmails: model.StringList(append([]string{}, n.CollaboratorEmails...)),
		Pinned:             n.Pinned,
		CreatedAt:          n.CreatedAt,
		UpdatedAt:          n.UpdatedAt,
	}
	return m
}

func toModelCollaborators(cs []domain.Collaborator) model.CollaboratorList {
	out := make(model.CollaboratorList, 0, len(cs))
	for _, c := range cs {
		out = append(out, model.Collaborator{
			Email:      c.Email,
			UID:        c.UID,
			Permission: string(c.Permission),
			AddedAt:    c.AddedAt,
		})
	}
	return out
}

// GetByID 根据 ID 获取笔记
func (r *noteRepository) GetByID(ctx context.Context, id string) (*domain.Note, error) {
	var m model.Note
	if err := r.dao.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return r.toDomain(&m), nil
}

// Create 创建笔记
func (r *noteRepository) Create(ctx context.Context, note *domain.Note) (*domain.Note, error) {
	m := r.toModel(note)
	if err := r.dao.db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return r.toDomain(m), nil
}

// UpdateFields 按字段名部分更新
// 接受的字段名: title, content, pinned, collaborators, collaboratorEmails, updatedAt
func (r *noteRepository) UpdateFields(ctx context.Context, id string, fields map[string]any) error {
	columns := make(map[string]any, len(fields))
	for name, value := range fields {
		switch name {
		case "title":
			columns["title"] = value
		case "content":
			columns["content"] = value
		case "pinned":
			columns["pinned"] = value
		case "updatedAt":
			columns["updated_at"] = value
		case "collaborators":
			cs, ok := value.([]domain.Collaborator)
			if !ok {
				return fmt.Errorf("field collaborators: unexpected type %T", value)
			}
			columns["collaborators"] = toModelCollaborators(cs)
		case "collaboratorEmails":
			emails, ok := value.([]string)
			if !ok {
				return fmt.Errorf("field collaboratorEmails: unexpected type %T", value)
			}
			columns["collaborator_emails"] = model.StringList(emails)
		default:
			return fmt.Errorf("unknown note field %q", name)
		}
	}

	// 先确认存在，缺失时与读取路径一样返回 gorm.ErrRecordNotFound
	var m model.Note
	if err := r.dao.db.WithContext(ctx).Select("id").Where("id = ?", id).First(&m).Error; err != nil {
		return err
	}
	return r.dao.db.WithContext(ctx).Model(&model.Note{}).Where("id = ?", id).Updates(columns).Error
}

// Delete 物理删除笔记
func (r *noteRepository) Delete(ctx context.Context, id string) error {
	return r.dao.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Note{}).Error
}

// ListByOwner 获取用户拥有的笔记，按 updatedAt 倒序
func (r *noteRepository) ListByOwner(ctx context.Context, ownerUID string) ([]*domain.Note, error) {
	var ms []*model.Note
	err := r.dao.db.WithContext(ctx).
		Where("owner = ?", ownerUID).
		Order("updated_at DESC").
		Find(&ms).Error
	if err != nil {
		return nil, err
	}
	return r.toDomainList(ms), nil
}

// likeEscaper 转义 LIKE 模式中的通配符，邮箱里的 _ 不能当单字符通配
// 转义字符选 ! 避免方言间反斜杠语义差异
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// ListByCollaboratorEmail 获取邮箱出现在协作者投影中的笔记，按 updatedAt 倒序
// 投影列是 JSON 数组文本，元素带引号，LIKE 匹配带引号的完整邮箱即可精确命中
func (r *noteRepository) ListByCollaboratorEmail(ctx context.Context, email string) ([]*domain.Note, error) {
	var ms []*model.Note
	err := r.dao.db.WithContext(ctx).
		Where("collaborator_emails LIKE ? ESCAPE '!'", `%"`+likeEscaper.Replace(email)+`"%`).
		Order("updated_at DESC").
		Find(&ms).Error
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Note, 0, len(ms))
	for _, m := range ms {
		n := r.toDomain(m)
		// LIKE 只是粗筛，入选仍以投影中的精确邮箱为准
		if n.HasCollaboratorEmail(email) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *noteRepository) toDomainList(ms []*model.Note) []*domain.Note {
	out := make([]*domain.Note, 0, len(ms))
	for _, m := range ms {
		out = append(out, r.toDomain(m))
	}
	return out
}

// 确保 noteRepository 实现了 NoteRepository 接口
var _ domain.NoteRepository = (*noteRepository)(nil)
