// internal/validate/prompt.go
package validate

import "fmt"

func pairPrompt(material string) string {
	return fmt.Sprintf(`你是一位专业的政务材料审查员。请仔细分析附带的两份文档，进行全面校验。

# 输入信息
- 材料名称: %[1]q
- 文档A: 空白表格
- 文档B: 示例样表

# 校验任务
请对以下6个方面进行校验，并给出明确的true/false判断：

1. forms_consistent: 空白表格和示例样表在整体布局、结构、表格项目和样式上是否基本一致？它们看起来应该是同一个模板的两种状态（一个未填写，一个已填写）。
2. blank_form_matches: 请宽松判断：空白表格的主旨是否与材料名称%[1]q的核心主题紧密相关？（判断标准：主题相关即可，无需文字完全匹配）
3. sample_form_matches: 请宽松判断：示例样表的主旨是否与材料名称%[1]q的核心主题紧密相关？
4. blank_form_empty: 空白表格中是否不包含任何个人信息填写示例？表格应该是干净的、待填写的状态。
5. sample_form_filled: 示例样表中是否清晰地包含了填写示例？
6. sample_info_masked: 示例样表中的个人信息（姓名、电话、地址等）是否已经打码处理？（如"张xx"、"139xxxx"等）

# 输出格式 (严格JSON格式)
每个判断项配一个 *_reason 字段说明理由，例如:
{"forms_consistent": true, "forms_consistent_reason": "...", "blank_form_matches": true, "blank_form_matches_reason": "...", "sample_form_matches": true, "sample_form_matches_reason": "...", "blank_form_empty": true, "blank_form_empty_reason": "...", "sample_form_filled": true, "sample_form_filled_reason": "...", "sample_info_masked": true, "sample_info_masked_reason": "..."}`, material)
}

func blankPrompt(material string) string {
	return fmt.Sprintf(`你是一位专业的政务材料审查员。请仔细分析附带的文档，进行校验。

# 输入信息
- 材料名称: %[1]q
- 文档类型: 空白表格

# 校验任务
1. blank_form_matches: 请宽松判断：空白表格的主旨是否与材料名称%[1]q的核心主题紧密相关？
2. blank_form_empty: 空白表格中是否不包含任何个人信息填写示例？

# 输出格式 (严格JSON格式)
{"blank_form_matches": true, "blank_form_matches_reason": "...", "blank_form_empty": true, "blank_form_empty_reason": "..."}`, material)
}

func samplePrompt(material string) string {
	return fmt.Sprintf(`你是一位专业的政务材料审查员。请仔细分析附带的文档，进行校验。

# 输入信息
- 材料名称: %[1]q
- 文档类型: 示例样表

# 校验任务
1. sample_form_matches: 请宽松判断：示例样表的主旨是否与材料名称%[1]q的核心主题紧密相关？
2. sample_form_filled: 示例样表中是否清晰地包含了填写示例？
3. sample_info_masked: 示例样表中的个人信息（姓名、电话、地址等）是否已经打码处理？

# 输出格式 (严格JSON格式)
{"sample_form_matches": true, "sample_form_matches_reason": "...", "sample_form_filled": true, "sample_form_filled_reason": "...", "sample_info_masked": true, "sample_info_masked_reason": "..."}`, material)
}
