package sheet

import "fmt"

const sampleItemURL = "https://www.jszwfw.gov.cn/jszwfw/bscx/itemlist/bszn.do?webId=3&iddept_yw_inf=1132050001414925263320105028002"

// sampleHeader mirrors the column layout of the historical inspection sheets,
// including the payload columns the runner ignores but must preserve.
var sampleHeader = []string{
	"序号", "事项类型", "事项名称", "检测类型",
	ColumnURL, ColumnMaterial, ColumnElement,
	"元素类型", "执行方式", ColumnExecTime, ColumnResult,
}

var sampleRows = [][]string{
	{"1", "事项巡检", "招聘会员位预约", "事项巡检", sampleItemURL, "招聘会员位申请", "空白表格", "下载链接", "linkcheck", "", ""},
	{"2", "事项巡检", "招聘会员位预约", "事项巡检", sampleItemURL, "招聘会员位申请", "示例样表", "下载链接", "linkcheck", "", ""},
	{"3", "事项巡检", "我省居民赴港澳探亲签注的许可", "事项巡检", sampleItemURL, "证明相应亲属关系文件", "示例样表", "下载链接", "linkcheck", "", ""},
	{"4", "事项巡检", "我省居民赴港澳探亲签注的许可", "事项巡检", sampleItemURL, "往来港澳通行证", "示例样表", "下载链接", "linkcheck", "", ""},
}

// WriteSample generates a ready-to-run example input workbook at path.
func WriteSample(path string) error {
	ds := &Dataset{Header: sampleHeader, Rows: sampleRows}
	results := make([]RowResult, len(sampleRows))
	if err := Write(path, ds, results); err != nil {
		return fmt.Errorf("failed to write sample workbook: %w", err)
	}
	return nil
}
