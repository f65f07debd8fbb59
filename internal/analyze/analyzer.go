// Package analyze contains the profile aggregation pipeline: one user lookup,
// one repository listing, then a concurrent fan-out over per-repository
// language statistics merged into a ranked top-five summary.
package analyze

import (
	"context"
	"sort"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/octo-lens/octo-lens/internal/upstream"
)

// Fetcher 描述聚合器需要的上游能力，便于在测试中注入替身。
type Fetcher interface {
	FetchUser(ctx context.Context, username string) (*upstream.User, []byte, error)
	ListRepos(ctx context.Context, reposURL string) ([]upstream.Repo, error)
	FetchLanguages(ctx context.Context, languagesURL string) ([]upstream.LanguageCount, error)
}

// Profile 是聚合结果，缓存未命中时整体重算，从不原地修改。
type Profile struct {
	Login        string          `json:"login"`
	PublicRepos  int             `json:"public_repos"`
	TopLanguages []LanguageTotal `json:"top_languages"`
}

// LanguageTotal 是跨仓库求和后的单种语言字节数。
type LanguageTotal struct {
	Lang  string `json:"lang"`
	Bytes int64  `json:"bytes"`
}

const topLanguageLimit = 5

// Analyzer 编排多次上游调用并归并结果，自身不持有任何持久状态。
type Analyzer struct {
	fetcher Fetcher
	logger  *logrus.Logger
}

// NewAnalyzer 构造聚合器。
func NewAnalyzer(fetcher Fetcher, logger *logrus.Logger) *Analyzer {
	return &Analyzer{
		fetcher: fetcher,
		logger:  logger,
	}
}

// Analyze 为指定用户产出语言聚合档案。
//
// 用户查询与仓库列表任一失败即整体失败；单个仓库的语言拉取失败只记录
// 日志并按空映射处理，不影响其余仓库。语言拉取并发执行，归并按仓库
// 列表顺序进行，保证并列名次的先后可复现。
func (a *Analyzer) Analyze(ctx context.Context, username string) (*Profile, error) {
	user, _, err := a.fetcher.FetchUser(ctx, username)
	if err != nil {
		return nil, err
	}

	repos, err := a.fetcher.ListRepos(ctx, user.ReposURL)
	if err != nil {
		return nil, err
	}

	perRepo := make([][]upstream.LanguageCount, len(repos))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, repo := range repos {
		eg.Go(func() error {
			counts, err := a.fetcher.FetchLanguages(egCtx, repo.LanguagesURL)
			if err != nil {
				a.logger.WithError(err).WithFields(logrus.Fields{
					"action":   "languages_fetch_skipped",
					"username": username,
					"repo":     repo.Name,
				}).Warn("仓库语言拉取失败，按空映射处理")
				return nil
			}
			perRepo[i] = counts
			return nil
		})
	}
	// 子任务从不返回 error，Wait 仅充当 fan-in 屏障。
	_ = eg.Wait()

	return &Profile{
		Login:        user.Login,
		PublicRepos:  user.PublicRepos,
		TopLanguages: rankLanguages(perRepo, topLanguageLimit),
	}, nil
}

// rankLanguages 跨仓库合并语言字节数并按总量降序排列，截断到 limit。
// 相同字节数的语言保持首次出现的先后（稳定排序，无次级键）。
func rankLanguages(perRepo [][]upstream.LanguageCount, limit int) []LanguageTotal {
	totals := make([]LanguageTotal, 0)
	index := make(map[string]int)

	for _, counts := range perRepo {
		for _, lc := range counts {
			if pos, ok := index[lc.Lang]; ok {
				totals[pos].Bytes += lc.Bytes
				continue
			}
			index[lc.Lang] = len(totals)
			totals = append(totals, LanguageTotal{Lang: lc.Lang, Bytes: lc.Bytes})
		}
	}

	sort.SliceStable(totals, func(i, j int) bool {
		return totals[i].Bytes > totals[j].Bytes
	})

	if len(totals) > limit {
		totals = totals[:limit]
	}
	return totals
}
