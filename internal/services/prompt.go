package services

import (
	"fmt"
)

// maxPromptChars caps how much extracted text is embedded in the prompt,
// keeping request size and cost bounded for large PDFs.
const maxPromptChars = 120000

const promptTemplate = `당신은 대학 수준의 교수 겸 출제위원입니다. 아래 PDF 본문을 바탕으로 다음을 한국어로 생성하세요.

1️⃣ **요약 정리본**
   - 가능한 한 자세하게, 문단 단위로 정리하세요.
   - 구성:
     - (1) 전체 개요 요약 (핵심 주제 3~5줄)
     - (2) 주요 개념 / 정의 / 공식 / 예시를 세부 항목으로 나열
     - (3) 각 단원별 요점, 핵심 키워드 목록
     - (4) 자주 나오는 시험 포인트, 오개념(헷갈리기 쉬운 부분) 정리
     - (5) 관련 용어 정리표 (필요 시 Markdown 표 형태)
   - Markdown 형식(h2/h3, 목록, 표, 수식은 $...$ 또는 ` + "```...```" + `)으로 깔끔하게 작성하세요.

2️⃣ **연습문제 및 심화문제**
   - 총 30문항 (기초 15문항, 심화 15문항)의 4지선다형 문제를 생성하세요.
   - 각 문항은 아래 JSON 구조를 따르세요:
     {
       "question": "문제 내용",
       "choices": ["보기1","보기2","보기3","보기4"],
       "answer_index": 0,
       "explanation": "정답 이유 또는 개념 요약"
     }
   - 조건:
     - 보기 문장은 간결하고 모두 실제 학습 내용 기반이어야 함
     - 오답은 헷갈리지만 틀린 선택지로 구성
     - 중복 표현 금지
     - 정답은 균등하게 분포하도록 구성 (0~3 고르게)
     - 기초: 정의, 개념, 이해 중심
     - 심화: 응용, 비교, 계산, 상황 판단 문제 중심

반드시 아래 JSON 구조로만 출력하세요(키 이름/타입 엄수):
{
  "summary_markdown": "...여기에 Markdown...",
  "problems": {
    "basic": [
      {"question":"...","choices":["...","...","...","..."],"answer_index":0,"explanation":"..."},
      ... (총 15문항)
    ],
    "advanced": [
      {"question":"...","choices":["...","...","...","..."],"answer_index":0,"explanation":"..."},
      ... (총 15문항)
    ]
  }
}

PDF 본문:
====
%s
====`

// BuildGenerationPrompt renders the fixed instruction block around the
// extracted PDF text, truncated to maxPromptChars characters.
func BuildGenerationPrompt(pdfText string) string {
	return fmt.Sprintf(promptTemplate, truncateRunes(pdfText, maxPromptChars))
}

func truncateRunes(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
